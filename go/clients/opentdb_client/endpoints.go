package opentdb_client

const (
	// Base URL
	BaseURL = "https://opentdb.com"

	// API Endpoints
	QuestionsEndpoint  = "/api.php"
	CategoriesEndpoint = "/api_category.php"

	// Question types
	TypeMultiple = "multiple"
	TypeBoolean  = "boolean"
)

// Response codes documented by Open Trivia DB.
const (
	ResponseSuccess        = 0
	ResponseNoResults      = 1
	ResponseInvalidParam   = 2
	ResponseTokenNotFound  = 3
	ResponseTokenEmpty     = 4
	ResponseRateLimit      = 5
	RateLimitWindowSeconds = 5
)
