package repository

// MergeOrder は並べ替え後のID順を決定する。
//
// currentはDay内の現在の並び順、orderedは要求された並び順。
// orderedのうちcurrentに含まれるIDを要求順に先頭へ並べ、
// 言及されなかったIDは現在の相対順のまま後ろに続ける。
// 重複や他Dayのidは無視する。matchedは要求順で配置できたIDの数。
func MergeOrder(current, ordered []int64) (final []int64, matched int) {
	present := make(map[int64]bool, len(current))
	for _, id := range current {
		present[id] = true
	}

	placed := make(map[int64]bool, len(current))
	final = make([]int64, 0, len(current))
	for _, id := range ordered {
		if !present[id] || placed[id] {
			continue
		}
		placed[id] = true
		final = append(final, id)
	}
	matched = len(final)

	for _, id := range current {
		if !placed[id] {
			final = append(final, id)
		}
	}
	return final, matched
}
