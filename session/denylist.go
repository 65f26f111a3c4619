package session

// Deny-list key layout. Token keys mark a single refresh token as consumed;
// family keys revoke every descendant of a refresh family at once.
const (
	tokenDenyPrefix  = "deny:token:"
	familyDenyPrefix = "deny:family:"
)

func tokenDenyKey(tokenID string) string { return tokenDenyPrefix + tokenID }

func familyDenyKey(familyID string) string { return familyDenyPrefix + familyID }
