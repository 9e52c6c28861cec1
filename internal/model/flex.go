package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNumberOutOfRange はFlexIntがINTEGER列に収まらない値を受け取ったことを表す。
var ErrNumberOutOfRange = errors.New("number out of range")

// FlexInt はフォーム由来のJSON値を整数として受け取る。
// 数値、数値文字列を受け付け、空文字列とnullは0とする。小数は切り捨てる。
// 32ビット整数の範囲外はErrNumberOutOfRangeになる。
type FlexInt int

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (n *FlexInt) UnmarshalJSON(b []byte) error {
	f, err := parseFlexNumber(b)
	if err != nil {
		return fmt.Errorf("FlexInt: %w", err)
	}
	f = math.Trunc(f)
	if f < math.MinInt32 || f > math.MaxInt32 {
		return fmt.Errorf("FlexInt: %w: %g", ErrNumberOutOfRange, f)
	}
	*n = FlexInt(f)
	return nil
}

// FlexFloat はFlexIntと同じ規則で小数を受け取る。
type FlexFloat float64

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (n *FlexFloat) UnmarshalJSON(b []byte) error {
	f, err := parseFlexNumber(b)
	if err != nil {
		return fmt.Errorf("FlexFloat: %w", err)
	}
	*n = FlexFloat(f)
	return nil
}

func parseFlexNumber(b []byte) (float64, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0, nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", s)
		}
		return finite(f)
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return 0, err
	}
	return finite(f)
}

func finite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return f, nil
}
