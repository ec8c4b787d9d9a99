package analyzer

// ContentFeatureVector is the quality vector of one piece of content.
// Pointer fields are nil when the input needed to compute them was not
// supplied, which keeps "not computed" apart from a real zero.
type ContentFeatureVector struct {
	// Content metrics
	WordCount          int     `json:"wordCount"`
	ParagraphCount     int     `json:"paragraphCount"`
	SentenceCount      int     `json:"sentenceCount"`
	AvgSentenceLength  float64 `json:"avgSentenceLength"`
	AvgParagraphLength float64 `json:"avgParagraphLength"`

	// Readability metrics
	FleschReadingEase         float64 `json:"fleschReadingEase"`
	FleschKincaidGrade        float64 `json:"fleschKincaidGrade"`
	SmogIndex                 float64 `json:"smogIndex"`
	ColemanLiauIndex          float64 `json:"colemanLiauIndex"`
	AutomatedReadabilityIndex float64 `json:"automatedReadabilityIndex"`
	ReadabilityLevel          string  `json:"readabilityLevel"`

	// Keyword metrics
	KeywordDensity          float64 `json:"keywordDensity"`
	KeywordFrequency        int     `json:"keywordFrequency"`
	KeywordInTitle          bool    `json:"keywordInTitle"`
	KeywordInFirstParagraph bool    `json:"keywordInFirstParagraph"`
	KeywordInLastParagraph  bool    `json:"keywordInLastParagraph"`
	KeywordInHeadings       int     `json:"keywordInHeadings"`
	SemanticKeywordCoverage float64 `json:"semanticKeywordCoverage"`

	// Structure metrics
	H1Count           int `json:"h1Count"`
	H2Count           int `json:"h2Count"`
	H3Count           int `json:"h3Count"`
	H4Count           int `json:"h4Count"`
	H5Count           int `json:"h5Count"`
	H6Count           int `json:"h6Count"`
	TotalHeadingCount int `json:"totalHeadingCount"`
	ListCount         int `json:"listCount"`
	TableCount        int `json:"tableCount"`
	ImageCount        int `json:"imageCount"`

	// Link metrics
	InternalLinkCount int      `json:"internalLinkCount"`
	ExternalLinkCount int      `json:"externalLinkCount"`
	FollowLinkCount   int      `json:"followLinkCount"`
	NofollowLinkCount int      `json:"nofollowLinkCount"`
	AvgLinkAuthority  *float64 `json:"avgLinkAuthority"`

	// Content quality metrics
	UniqueWordRatio  float64 `json:"uniqueWordRatio"`
	LexicalDiversity float64 `json:"lexicalDiversity"`
	HapaxRatio       float64 `json:"hapaxRatio"`
	ContentDepth     float64 `json:"contentDepth"`
	QuestionCount    int     `json:"questionCount"`
	StatCount        int     `json:"statCount"`
	QuoteCount       int     `json:"quoteCount"`
	CodeBlockCount   int     `json:"codeBlockCount"`

	// SEO metrics
	TitleLength           int  `json:"titleLength"`
	MetaDescriptionLength int  `json:"metaDescriptionLength"`
	URLLength             int  `json:"urlLength"`
	HasSchema             bool `json:"hasSchema"`
	HasFAQ                bool `json:"hasFAQ"`
	HasHowTo              bool `json:"hasHowTo"`

	// Engagement metrics
	EstimatedReadTime       int `json:"estimatedReadTime"`
	MultimediaCount         int `json:"multimediaCount"`
	InteractiveElementCount int `json:"interactiveElementCount"`
	CTACount                int `json:"ctaCount"`

	// NLP metrics
	EntityDensity  float64  `json:"entityDensity"`
	TopicCoverage  *float64 `json:"topicCoverage"`
	SentimentScore float64  `json:"sentimentScore"`
	FormalityScore float64  `json:"formalityScore"`

	// Competitive metrics
	CompetitorAvgWordCount int     `json:"competitorAvgWordCount"`
	CompetitorAvgHeadings  int     `json:"competitorAvgHeadings"`
	ContentGapScore        float64 `json:"contentGapScore"`
	DifferentiationScore   float64 `json:"differentiationScore"`
}

// CompetitorBaseline carries averages of the competing pages for a keyword.
// Zero values fall back to DefaultCompetitorWordCount and DefaultCompetitorHeadings.
type CompetitorBaseline struct {
	AvgWordCount int      `json:"avgWordCount"`
	AvgHeadings  int      `json:"avgHeadings"`
	Topics       []string `json:"topics,omitempty"`
}

// Input is everything one extraction looks at.
type Input struct {
	Content         string              `json:"content" binding:"required"`
	Keyword         string              `json:"keyword" binding:"required"`
	Title           string              `json:"title"`
	MetaDescription string              `json:"metaDescription"`
	URL             string              `json:"url"`
	Competitor      *CompetitorBaseline `json:"competitor,omitempty"`
	// LinkAuthority maps a domain (without "www.") to its authority score.
	LinkAuthority map[string]float64 `json:"linkAuthority,omitempty"`
}

// NormalizedScores rescales selected features to 0-100.
type NormalizedScores struct {
	WordCount           float64 `json:"wordCount"`
	Readability         float64 `json:"readability"`
	KeywordOptimization float64 `json:"keywordOptimization"`
	Structure           float64 `json:"structure"`
	Links               float64 `json:"links"`
	Engagement          float64 `json:"engagement"`
	SEOBasics           float64 `json:"seoBasics"`
}

// ContentAnalysis is the response shape of a full extraction.
type ContentAnalysis struct {
	Features        *ContentFeatureVector `json:"features"`
	Normalized      NormalizedScores      `json:"normalized"`
	Score           float64               `json:"score"`
	Recommendations []string              `json:"recommendations"`
}
