// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

// newMistral creates a Mistral provider. Mistral's chat completions API is
// OpenAI-compatible, so it shares the OpenAI client at a different base URL.
func newMistral(cfg ProviderConfig) *openAIProvider {
	return newOpenAICompatible("mistral", cfg, "https://api.mistral.ai/v1")
}
