// Package model defines the provider-agnostic abstraction the planner uses
// to drive plan generation.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Hide vendor SDKs behind a single non-streaming Generate call
//   - Facilitate lightweight mocking for tests (Mock)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so the planner remains decoupled from vendor SDKs.
package model
