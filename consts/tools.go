package consts

// Tool names exposed to the agent. The catalog is closed: every tool the agent
// can call is listed here.
const (
	CompanyOverview        = "get_company_overview"
	TopCompaniesByTxVolume = "get_top_companies_by_tx_volume"
	DailyTx                = "get_daily_tx"
)

// LLM providers
const (
	ProviderGroq     = "groq"
	ProviderOllama   = "ollama"
	ProviderDeepSeek = "deepseek"
	ProviderOpenAI   = "openai"
)

const (
	// DefaultTopN is used when get_top_companies_by_tx_volume is called without top_n.
	DefaultTopN = 5

	AppName    = "sectorsgo"
	AppVersion = "v1.0.0"
)
