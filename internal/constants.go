package internal

const (
	COOKIE_ACCESS_TOKEN_NAME = "delala_access_token"
	COOKIE_REDIRECT_NAME     = "delala_redirect"
	COOKIE_DRAFT_ID_NAME     = "delala_draft"
	COOKIE_FEED_ID_NAME      = "delala_feed"
)
