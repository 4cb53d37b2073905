package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agrichat/agrichat/internal/core/domain"
)

func TestRuleClassify_Ordering(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantType domain.IntentType
		wantConf float64
	}{
		{"short greeting", "你好", domain.IntentChitchat, 0.95},
		{"english greeting", "Hello", domain.IntentChitchat, 0.95},
		{"politeness", "謝謝", domain.IntentChitchat, 0.95},
		{"business keyword", "農地貸款利率是多少", domain.IntentRAG, 0.90},
		{"long greeting with business keyword", "你好，請問農地可以貸款嗎", domain.IntentRAG, 0.90},
		{"question word without keyword", "如何查詢餘額", domain.IntentRAG, 0.80},
		{"chitchat topic", "今天天氣真好", domain.IntentChitchat, 0.85},
		{"out of scope", "股票可以買嗎", domain.IntentOutOfScope, 0.90},
		{"default falls through to retrieval", "農會營業到幾點", domain.IntentRAG, 0.70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ruleClassify(tt.query)
			assert.Equal(t, tt.wantType, got.Type)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestRuleClassify_GreetingLengthGuard(t *testing.T) {
	// A greeting embedded in a long query must not short-circuit
	// classification of the rest of the sentence.
	short := ruleClassify("嗨")
	assert.Equal(t, domain.IntentChitchat, short.Type)

	long := ruleClassify("你好，我想知道肥料的共同採購什麼時候開始")
	assert.Equal(t, domain.IntentRAG, long.Type)
}

func TestApplyOverrides_ForceRAG(t *testing.T) {
	intent := domain.Intent{Type: domain.IntentChitchat, Confidence: 0.95, Reason: "原判定"}

	got := applyOverrides("我要申請補助津貼", intent)

	assert.Equal(t, domain.IntentRAG, got.Type)
	assert.Equal(t, "關鍵字覆蓋：原判定", got.Reason)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
}

func TestApplyOverrides_ForceChitchatShortOnly(t *testing.T) {
	intent := domain.Intent{Type: domain.IntentRAG, Confidence: 0.9, Reason: "原判定"}

	got := applyOverrides("你好", intent)
	assert.Equal(t, domain.IntentChitchat, got.Type)
	assert.Equal(t, "關鍵字覆蓋：原判定", got.Reason)

	// Long queries keep the original verdict even when a greeting word
	// appears.
	long := applyOverrides("你好，今年的天氣對收成有影響嗎", intent)
	assert.Equal(t, domain.IntentRAG, long.Type)
	assert.Equal(t, "原判定", long.Reason)
}

func TestApplyOverrides_ShortGreetingBeatsBusinessKeyword(t *testing.T) {
	// A short greeting that also mentions a business keyword stays
	// chitchat: the greeting override runs last.
	intent := domain.Intent{Type: domain.IntentChitchat, Confidence: 0.95, Reason: "原判定"}

	got := applyOverrides("你好 貸款", intent)

	assert.Equal(t, domain.IntentChitchat, got.Type)
}

func TestApplyOverrides_NoChangeWhenAlreadyMatching(t *testing.T) {
	intent := domain.Intent{Type: domain.IntentRAG, Confidence: 0.9, Reason: "原判定"}

	got := applyOverrides("貸款申請流程", intent)

	assert.Equal(t, intent, got)
}

func TestExtractMetadataFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  map[string]any
	}{
		{"credit department", "貸款利率怎麼算", map[string]any{"department": "credit"}},
		{"insurance department", "保險理賠要準備什麼", map[string]any{"department": "insurance"}},
		{"supply department", "肥料共同採購", map[string]any{"department": "supply"}},
		{"year with suffix", "2023年的補助還有嗎", map[string]any{"year": "2023"}},
		{"bare year", "subsidy rules for 2024", map[string]any{"year": "2024"}},
		{"department and year", "2022年的貸款方案", map[string]any{"department": "credit", "year": "2022"}},
		{"no filterable terms", "你好", map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMetadataFilter(tt.query))
		})
	}
}
