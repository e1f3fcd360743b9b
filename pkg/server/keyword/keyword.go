package keyword

// CtxKey is the user value under which the request scoped context.Context is stored.
const CtxKey = "ctx"
