package search

// DomainVocabulary lists multi-word domain terms a general-purpose
// segmenter would split incorrectly: crop and pest names, subsidy
// programmes, and the paperwork vocabulary of deposit inheritance.
// The preprocessor is seeded with these at construction.
var DomainVocabulary = []string{
	// Farming techniques
	"水稻", "病蟲害", "施肥", "灌溉", "育苗", "稻熱病", "紋枯病", "白葉枯病",
	"有機肥", "化學肥", "滴灌", "噴灌", "溫室", "大棚", "除草劑", "殺蟲劑",
	"農藥", "肥料", "種子", "秧苗", "收割", "播種", "插秧", "翻土",
	// Policy and subsidies
	"補助", "申請", "資格", "流程", "審核", "撥款", "農會", "農保", "農機補助",
	"老農津貼", "農民健康保險", "農業天然災害救助", "休耕補助",
	// Deposit inheritance paperwork
	"繼承", "存款", "繼承人", "證件", "戶籍謄本", "正本", "國民身分證",
	"除戶謄本", "親屬關係證明", "遺產分割協議書", "印鑑證明", "身分證影本",
	// Credit business
	"貸款", "利率", "信貸", "還款", "額度",
}

// stopwords are dropped from every token stream before scoring.
var stopwords = map[string]struct{}{
	"的": {}, "了": {}, "在": {}, "是": {}, "我": {}, "有": {}, "和": {},
	"就": {}, "不": {}, "人": {}, "都": {}, "一": {}, "一個": {}, "上": {},
	"也": {}, "很": {}, "到": {}, "說": {}, "要": {}, "去": {}, "你": {},
	"會": {}, "著": {}, "沒有": {}, "看": {}, "好": {}, "這樣": {},
	"那樣": {}, "如何": {}, "什麼": {}, "怎麼": {}, "請問": {}, "可以": {},
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "of": {}, "to": {},
	"and": {}, "or": {}, "in": {}, "on": {}, "for": {}, "it": {},
}
