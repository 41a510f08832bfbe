package confidence

// Fixed vocabularies backing the factor heuristics. These are policy
// dictionaries, not exhaustive lists: each term is a strong signal on
// its own, and factor scores are capped so coverage gaps stay cheap.

// technicalTerms are protocol/type/identifier-like tokens whose presence
// in a requirement signals concrete, implementable detail.
var technicalTerms = map[string]bool{
	"api": true, "http": true, "https": true, "grpc": true, "rest": true,
	"graphql": true, "json": true, "yaml": true, "xml": true, "csv": true,
	"sql": true, "sqlite": true, "postgres": true, "database": true,
	"schema": true, "index": true, "cache": true, "queue": true,
	"endpoint": true, "webhook": true, "websocket": true, "jwt": true,
	"oauth": true, "token": true, "tls": true, "uuid": true, "regex": true,
	"markdown": true, "cli": true, "sdk": true, "stdin": true, "stdout": true,
	"tcp": true, "udp": true, "dns": true, "utf8": true, "mcp": true,
}

// testingTerms are vocabulary recognized in a test strategy.
var testingTerms = map[string]bool{
	"unit": true, "integration": true, "e2e": true, "regression": true,
	"coverage": true, "mock": true, "stub": true, "fixture": true,
	"benchmark": true, "fuzz": true, "assert": true, "tdd": true,
	"smoke": true, "property": true, "table": true, "snapshot": true,
}

// vagueTerms are filler words whose density drives the ambiguity factor.
var vagueTerms = map[string]bool{
	"some": true, "various": true, "several": true, "many": true, "few": true,
	"better": true, "improve": true, "improved": true, "enhance": true,
	"enhanced": true, "optimize": true, "optimized": true, "stuff": true,
	"things": true, "thing": true, "etc": true, "maybe": true,
	"somehow": true, "appropriate": true, "relevant": true, "good": true,
	"bad": true, "fast": true, "slow": true, "nice": true, "simple": true,
	"easy": true, "clean": true, "properly": true, "correctly": true,
	"efficient": true, "flexible": true, "robust": true, "scalable": true,
	"user-friendly": true, "intuitive": true, "seamless": true,
}

// stopWords are common words filtered out of similarity keywords.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"was": true, "one": true, "our": true, "out": true, "has": true,
	"its": true, "may": true, "who": true, "did": true, "get": true,
	"how": true, "new": true, "now": true, "see": true, "way": true,
	"use": true, "that": true, "with": true, "have": true, "this": true,
	"will": true, "your": true, "from": true, "they": true, "been": true,
	"each": true, "which": true, "their": true, "there": true, "about": true,
	"would": true, "make": true, "like": true, "just": true, "over": true,
	"such": true, "take": true, "also": true, "into": true, "than": true,
	"them": true, "then": true, "some": true, "what": true, "when": true,
	"were": true, "other": true, "could": true, "after": true, "should": true,
	"must": true, "where": true, "while": true, "using": true,
}
