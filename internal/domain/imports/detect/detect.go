// Package detect classifies a parsed statement file by inspecting the first
// row's key set.
package detect

import (
	"strings"

	"github.com/ylzheng/zhangben/internal/domain/imports/reader"
)

// Platform is the detected statement origin.
type Platform string

const (
	// Standard is the fallback: the file is assumed to be the standard
	// template and the standard mapper's own column validation produces the
	// descriptive error if it is not.
	Standard Platform = "standard"
	Alipay   Platform = "alipay"
	WeChat   Platform = "wechat"
	// Unknown is returned only for empty input.
	Unknown Platform = "unknown"
)

// Column names that identify an Alipay export. These are the most specific
// signatures in the wild, which is why Alipay is checked first: several
// WeChat-ish column names are loose enough to false-positive on Alipay
// files, never the other way around.
var alipayColumns = []string{"交易分类", "收/付款方式", "商品说明", "商品名称", "交易号"}

var wechatColumns = []string{"交易类型", "支付方式", "商品"}

var timeColumns = []string{"交易时间", "交易创建时间"}

var amountColumns = []string{"金额(元)", "金额", "金额（元）"}

// Detect classifies rows produced by the reader. Only the first row's keys
// are inspected; all rows of one export share the same header.
func Detect(rows []reader.Row) Platform {
	if len(rows) == 0 {
		return Unknown
	}
	keys := keySet(rows[0])

	timeAndAmount := (hasExact(keys, timeColumns...) &&
		(hasExact(keys, amountColumns...) || hasSubstring(keys, "金额")))

	if hasExact(keys, alipayColumns...) || timeAndAmount {
		return Alipay
	}
	if hasExact(keys, wechatColumns...) ||
		(hasExact(keys, "收/支") && (hasExact(keys, amountColumns...) || hasSubstring(keys, "金额"))) {
		return WeChat
	}
	return Standard
}

func keySet(row reader.Row) map[string]struct{} {
	keys := make(map[string]struct{}, len(row))
	for k := range row {
		keys[strings.TrimSpace(k)] = struct{}{}
	}
	return keys
}

func hasExact(keys map[string]struct{}, names ...string) bool {
	for _, n := range names {
		if _, ok := keys[n]; ok {
			return true
		}
	}
	return false
}

func hasSubstring(keys map[string]struct{}, sub string) bool {
	for k := range keys {
		if strings.Contains(k, sub) {
			return true
		}
	}
	return false
}
