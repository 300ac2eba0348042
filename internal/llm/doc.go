// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm wraps the OpenAI API for completion and delegated-file calls.
//
// The wrapper exposes exactly the surface the orchestrator needs: one
// chat-completion entry point with typed error classification (bad request
// vs context overflow vs everything else) and the assistants/files sub-API
// used by the delegated-file path. API keys are never logged; use
// KeyFingerprint for diagnostics.
package llm
