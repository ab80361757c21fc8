package contextkeys

type contextKey string

const UserContextKey contextKey = "user"
