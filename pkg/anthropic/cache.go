package anthropic

// DefaultCacheTTL keeps a cached system prompt warm between claims.
const DefaultCacheTTL = "5m"

// BuildCachedSystemBlocks constructs system content blocks with a cache
// breakpoint. The claim rubric is identical for every request, so it is
// written to the prompt cache once and read back afterwards. An empty ttl
// uses DefaultCacheTTL.
func BuildCachedSystemBlocks(text, ttl string) []SystemBlock {
	if ttl == "" {
		ttl = DefaultCacheTTL
	}
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: ttl,
			},
		},
	}
}

// BuildSystemBlocks constructs an uncached system prompt.
func BuildSystemBlocks(text string) []SystemBlock {
	if text == "" {
		return nil
	}
	return []SystemBlock{{Text: text}}
}
