// Package categorization predicts a category for a transaction from its
// note text. User-defined keyword rules take priority over a built-in
// per-scene keyword table; both are compiled into one Aho-Corasick matcher
// per scene so a batch prefill stays cheap even on large imports.
package categorization

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ylzheng/zhangben/internal/domain/ledger"
)

// keywordGroup binds a set of note keywords to one category. Group order is
// priority order: a hit in an earlier group wins over any later group.
type keywordGroup struct {
	category string
	keywords []string
}

// Built-in tables. Keep the group order stable: it encodes precedence, not
// just grouping.
var builtinExpense = []keywordGroup{
	{"三餐", []string{"早餐", "午餐", "晚餐", "外卖", "餐厅", "饭店", "奶茶", "咖啡"}},
	{"交通", []string{"公交", "地铁", "打车", "出租", "滴滴", "出行", "高铁", "火车", "机票"}},
	{"娱乐", []string{"电影", "娱乐", "网游", "游戏", "剧场", "ktv", "音乐"}},
	{"医疗", []string{"医院", "医疗", "看病", "药店", "药品", "体检"}},
	{"学习", []string{"学习", "课程", "培训", "书籍", "教材"}},
	{"日用品", []string{"纸巾", "清洁", "生活", "用品", "日用品"}},
	{"水电煤", []string{"房租", "租金", "物业", "水费", "电费", "燃气", "煤气"}},
	{"美妆", []string{"化妆", "美妆", "美容", "护肤"}},
	{"子女教育", []string{"孩子", "幼儿园", "课外", "辅导", "教育"}},
}

var builtinIncome = []keywordGroup{
	{"工资", []string{"工资", "薪资", "薪水", "发薪"}},
	{"生活费", []string{"生活费", "零用", "家人汇款"}},
	{"收红包", []string{"红包", "收红包", "礼金"}},
	{"外快", []string{"外快", "兼职", "劳务", "项目款", "佣金"}},
	{"股票基金", []string{"基金", "股票", "理财", "分红"}},
}

// sceneMatcher holds one scene's compiled patterns. categories[i] is the
// category for pattern i; pattern order is priority order.
type sceneMatcher struct {
	patterns   []string
	categories []string
	matcher    *ahocorasick.Matcher
}

func compileScene(rules []ledger.CategoryRule, builtin []keywordGroup) *sceneMatcher {
	m := &sceneMatcher{}
	// First occurrence of a keyword wins, so a user rule shadows any
	// built-in entry for the same keyword.
	seen := map[string]bool{}
	add := func(kw, cat string) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		cat = strings.TrimSpace(cat)
		if kw == "" || cat == "" || seen[kw] {
			return
		}
		seen[kw] = true
		m.patterns = append(m.patterns, kw)
		m.categories = append(m.categories, cat)
	}
	for _, r := range rules {
		add(r.Keyword, r.Category)
	}
	for _, g := range builtin {
		for _, kw := range g.keywords {
			add(kw, g.category)
		}
	}
	m.matcher = ahocorasick.NewStringMatcher(m.patterns)
	return m
}

// predict returns the category of the highest-priority pattern found in the
// lowercased text, or "".
func (m *sceneMatcher) predict(text string) string {
	hits := m.matcher.Match([]byte(text))
	best := -1
	for _, h := range hits {
		if best == -1 || h < best {
			best = h
		}
	}
	if best == -1 {
		return ""
	}
	return m.categories[best]
}

// fuzzyPredict is the fallback when no keyword occurs verbatim: the pattern
// with the best normalized fuzzy rank against the text wins. Only patterns
// that actually rank are considered, so noise text still predicts nothing.
func (m *sceneMatcher) fuzzyPredict(text string) string {
	bestRank, bestIdx := -1, -1
	for i, kw := range m.patterns {
		rank := fuzzy.RankMatchNormalizedFold(kw, text)
		if rank < 0 {
			continue
		}
		if bestIdx == -1 || rank < bestRank {
			bestRank, bestIdx = rank, i
		}
	}
	if bestIdx == -1 {
		return ""
	}
	return m.categories[bestIdx]
}

// Predictor predicts categories for both scenes of one ledger. Rebuild it
// after the user edits their category rules.
type Predictor struct {
	scenes map[ledger.Scene]*sceneMatcher
}

// NewPredictor compiles the ledger's user rules plus the built-in tables.
func NewPredictor(state *ledger.State) *Predictor {
	return &Predictor{scenes: map[ledger.Scene]*sceneMatcher{
		ledger.SceneExpense: compileScene(state.CategoryRules[ledger.SceneExpense], builtinExpense),
		ledger.SceneIncome:  compileScene(state.CategoryRules[ledger.SceneIncome], builtinIncome),
	}}
}

// Predict returns a category for the text within the scene, or "" when
// nothing matches. User rules always win over the built-in table.
func (p *Predictor) Predict(text string, scene ledger.Scene) string {
	m, ok := p.scenes[scene]
	if ok && strings.TrimSpace(text) != "" {
		lower := strings.ToLower(text)
		if cat := m.predict(lower); cat != "" {
			return cat
		}
		return m.fuzzyPredict(lower)
	}
	return ""
}

// PredictTransaction predicts within the scene the transaction's type
// belongs to. The matched text is note plus record source plus account, so a
// rule can key on the statement's origin or the paying account, not just the
// note. Transfers and repayments have no scene and predict "".
func (p *Predictor) PredictTransaction(tx *ledger.Transaction) string {
	scene, ok := tx.Type.Scene()
	if !ok {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, s := range []string{tx.Note, tx.RecordSource, tx.Account} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return p.Predict(strings.Join(parts, " "), scene)
}
