package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agrichat/agrichat/internal/core/domain"
)

// Keyword tables for the rule engine. The rule order below is load
// bearing: business keywords must win over interrogative heuristics,
// and greetings must be checked before anything else so "你好，想問貸款"
// still reaches the business rule via the length guard.
var (
	greetingKeywords = []string{
		"你好", "您好", "hi", "hello", "嗨",
		"早安", "午安", "晚安", "早上好", "晚上好",
	}

	politenessKeywords = []string{
		"謝謝", "感謝", "謝了", "多謝", "thx", "thanks",
		"好的", "ok", "知道了", "明白", "了解", "收到",
	}

	businessKeywords = []string{
		// Credit
		"貸款", "信貸", "借款", "利率", "利息", "還款", "額度",
		// Insurance
		"保險", "投保", "理賠", "保費", "保單",
		// Subsidies
		"補助", "補貼", "獎勵", "津貼",
		// Farming supplies
		"農機", "農具", "肥料", "農藥", "種子",
		"有機", "認證", "檢驗",
		// Procedures
		"申請", "辦理", "手續", "文件", "證明", "資格",
		"條件", "規定", "辦法", "流程", "步驟", "繼承",
	}

	questionWords = []string{
		"如何", "怎麼", "怎樣", "怎麽", "怎么",
		"什麼", "什么", "哪裡", "哪里", "哪些",
		"為什麼", "為何", "幾時", "何時",
	}

	chitchatTopics = []string{
		"天氣", "氣溫", "下雨", "晴天",
		"時間", "日期", "星期",
		"心情", "累", "開心", "難過",
	}

	outOfScopeKeywords = []string{
		"股票", "基金", "投資", "理財",
		"醫療", "看病", "藥物", "治療",
		"法律", "訴訟", "律師",
		"寫作", "小說", "詩歌",
	}
)

// Keyword override tables applied on top of a confident model verdict.
// The model occasionally misclassifies unambiguous cases; this layer is
// a correctness backstop, not a replacement.
var (
	forceRAGKeywords      = []string{"貸款", "補助", "保險", "申請", "流程"}
	forceChitchatKeywords = []string{"你好", "謝謝", "再見"}
)

// ruleClassify is the deterministic fallback classifier: an ordered
// rule list evaluated top to bottom, defaulting to RAG. Under-triggering
// retrieval is worse than an unnecessary retrieval, so the conservative
// default is to retrieve.
func ruleClassify(query string) domain.Intent {
	trimmed := strings.TrimSpace(query)
	lower := strings.ToLower(trimmed)
	length := utf8.RuneCountInString(trimmed)

	if containsAny(lower, greetingKeywords) && length < 10 {
		return domain.Intent{Type: domain.IntentChitchat, Confidence: 0.95, Reason: "規則匹配：問候語"}
	}

	if containsAny(lower, politenessKeywords) && length < 15 {
		return domain.Intent{Type: domain.IntentChitchat, Confidence: 0.95, Reason: "規則匹配：禮貌用語"}
	}

	if containsAny(trimmed, businessKeywords) {
		return domain.Intent{Type: domain.IntentRAG, Confidence: 0.90, Reason: "規則匹配：業務關鍵字"}
	}

	if containsAny(trimmed, questionWords) && length > 5 {
		return domain.Intent{Type: domain.IntentRAG, Confidence: 0.80, Reason: "規則匹配：疑問詞"}
	}

	if containsAny(trimmed, chitchatTopics) {
		return domain.Intent{Type: domain.IntentChitchat, Confidence: 0.85, Reason: "規則匹配：閒聊話題"}
	}

	if containsAny(trimmed, outOfScopeKeywords) {
		return domain.Intent{Type: domain.IntentOutOfScope, Confidence: 0.90, Reason: "規則匹配：超出業務範圍"}
	}

	return domain.Intent{Type: domain.IntentRAG, Confidence: 0.70, Reason: "規則匹配：預設使用 RAG"}
}

// applyOverrides forces the intent for unambiguous keyword matches even
// when the model was confident in a different verdict.
func applyOverrides(query string, intent domain.Intent) domain.Intent {
	trimmed := strings.TrimSpace(query)
	length := utf8.RuneCountInString(trimmed)

	if containsAny(trimmed, forceRAGKeywords) && intent.Type != domain.IntentRAG {
		intent.Type = domain.IntentRAG
		intent.Reason = "關鍵字覆蓋：" + intent.Reason
	}

	// Checked after the RAG override: a short greeting wins even when
	// it also carries a business keyword.
	if containsAny(trimmed, forceChitchatKeywords) && length < 10 && intent.Type != domain.IntentChitchat {
		intent.Type = domain.IntentChitchat
		intent.Reason = "關鍵字覆蓋：" + intent.Reason
	}

	return intent
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// departmentKeywords maps metadata department values to the query
// keywords that imply them.
var departmentKeywords = []struct {
	department string
	keywords   []string
}{
	{"credit", []string{"credit", "loan", "貸款", "信貸"}},
	{"insurance", []string{"insurance", "保險"}},
	{"supply", []string{"supply", "purchase", "採購", "供應"}},
	{"promotion", []string{"promotion", "education", "培訓", "推廣"}},
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b|(\d{4})年`)

// ExtractMetadataFilter derives an exact-match metadata filter from the
// query text: a department inferred from business keywords and a year if
// the query names one. An empty map means no filtering.
func ExtractMetadataFilter(query string) map[string]any {
	filter := make(map[string]any)
	lower := strings.ToLower(query)

	for _, dk := range departmentKeywords {
		if containsAny(lower, dk.keywords) {
			filter["department"] = dk.department
			break
		}
	}

	if m := yearPattern.FindString(query); m != "" {
		filter["year"] = strings.TrimSuffix(m, "年")
	}

	return filter
}
