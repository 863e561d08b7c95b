// Package gemini implements the generation.Generator interface using
// Google's Gemini API. Model output is treated as an untrusted external
// schema: the raw text goes through an ordered chain of parse recovery
// strategies before the package gives up and reports an invalid response.
package gemini
