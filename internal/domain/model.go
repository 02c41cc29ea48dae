package domain

// ProviderFamily tags which gateway variant serves a canonical model id
type ProviderFamily string

const (
	FamilyOpenAI     ProviderFamily = "openai"
	FamilyOpenRouter ProviderFamily = "openrouter"
	FamilyLocal      ProviderFamily = "local"
)

// ModelSelection is a canonical model id with its resolved provider family.
// It is derived per request and never persisted.
type ModelSelection struct {
	CanonicalID string         `json:"canonical_id"`
	Family      ProviderFamily `json:"family"`
}

// ModelAlias is one entry of the canonical model table
type ModelAlias struct {
	Alias       string         `json:"alias"`
	CanonicalID string         `json:"canonical_id"`
	Family      ProviderFamily `json:"family"`
}
