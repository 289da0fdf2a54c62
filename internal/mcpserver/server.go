// Package mcpserver exposes tokenization, sentence reconstruction and key
// reconciliation as MCP tools over stdio.
package mcpserver

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/daikw/tapread/internal/lang"
	"github.com/daikw/tapread/internal/reconcile"
	"github.com/daikw/tapread/internal/sentence"
	"github.com/daikw/tapread/internal/token"
	"github.com/daikw/tapread/internal/tokenizer"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

const (
	serverName = "tapread"

	cacheTTL     = 30 * time.Minute
	cacheCleanup = time.Hour
)

// Server wires the tools to a shared tokenizer. Token streams are memoized
// per language, mode and text digest.
type Server struct {
	mcp        *server.MCPServer
	tok        *tokenizer.Tokenizer
	reconciler *reconcile.Reconciler
	window     int
	streams    *cache.Cache
}

// Option configures a Server.
type Option func(*Server)

// WithTokenizer replaces the default tokenizer.
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(s *Server) {
		s.tok = t
	}
}

// WithThreshold sets the fuzzy matching threshold.
func WithThreshold(threshold float64) Option {
	return func(s *Server) {
		s.reconciler = reconcile.NewReconciler(threshold)
	}
}

// WithWindow sets the default exhaustive window.
func WithWindow(n int) Option {
	return func(s *Server) {
		s.window = n
	}
}

// New creates a server with all tools registered.
func New(version string, opts ...Option) *Server {
	s := &Server{
		reconciler: reconcile.NewReconciler(reconcile.DefaultThreshold),
		window:     sentence.DefaultWindow,
		streams:    cache.New(cacheTTL, cacheCleanup),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tok == nil {
		s.tok = tokenizer.New()
	}

	s.mcp = server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))
	s.mcp.AddTool(tokenizeTool(), s.handleTokenize)
	s.mcp.AddTool(reconstructTool(), s.handleReconstruct)
	s.mcp.AddTool(reconcileTool(), s.handleReconcile)
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves requests on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	log.Info().Str("server", serverName).Msg("Serving MCP over stdio")
	if err := server.ServeStdio(s.mcp); err != nil {
		return fmt.Errorf("failed to serve MCP: %w", err)
	}
	return nil
}

func languageArg() mcp.ToolOption {
	return mcp.WithString("language",
		mcp.Description("Language code such as en, ja or zh; unsupported codes use Latin rules"),
		mcp.DefaultString(lang.Default),
	)
}

func tokenizeTool() mcp.Tool {
	return mcp.NewTool("tokenize",
		mcp.WithDescription("Split text into word and punctuation tokens and return the |-delimited stream"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw text")),
		languageArg(),
		mcp.WithString("mode",
			mcp.Description("preserve keeps punctuation for storage, lookup keeps case-folded words only"),
			mcp.Enum(tokenizer.ModePreserve.String(), tokenizer.ModeLookup.String()),
			mcp.DefaultString(tokenizer.ModePreserve.String()),
		),
	)
}

func reconstructTool() mcp.Tool {
	return mcp.NewTool("reconstruct_sentences",
		mcp.WithDescription("Rebuild candidate sentences from a |-delimited token stream"),
		mcp.WithString("content", mcp.Required(), mcp.Description("Serialized token stream")),
		languageArg(),
		mcp.WithBoolean("exhaustive", mcp.Description("Enumerate every contiguous run instead of sentence boundaries only")),
		mcp.WithNumber("window", mcp.Description("Maximum tokens per exhaustive candidate, 0 for no limit")),
	)
}

func reconcileTool() mcp.Tool {
	return mcp.NewTool("reconcile_sentences",
		mcp.WithDescription("Align the keys of a translation map with the sentences of a token stream and return the repaired map"),
		mcp.WithString("content", mcp.Required(), mcp.Description("Serialized token stream")),
		mcp.WithString("translations", mcp.Required(), mcp.Description("Translation map as a JSON object text, key order is kept")),
		languageArg(),
		mcp.WithBoolean("exhaustive", mcp.Description("Match against every contiguous run")),
	)
}

type tokenizeResult struct {
	Language string        `json:"language"`
	Mode     string        `json:"mode"`
	Content  string        `json:"content,omitempty"`
	Tokens   []token.Token `json:"tokens"`
}

func (s *Server) handleTokenize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := tokenizer.ParseMode(req.GetString("mode", tokenizer.ModePreserve.String()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	stream := s.tokenize(text, req.GetString("language", lang.Default), mode)
	res := tokenizeResult{Language: stream.Language, Mode: mode.String(), Tokens: stream.Tokens}
	if mode == tokenizer.ModePreserve {
		content, err := stream.Serialize()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stream cannot be stored: %v", err)), nil
		}
		res.Content = content
	}
	return jsonResult(res)
}

// tokenize returns a memoized stream. Streams are treated as read-only.
func (s *Server) tokenize(text, code string, mode tokenizer.Mode) token.Stream {
	key := fmt.Sprintf("%s|%s|%x", code, mode, sha256.Sum256([]byte(text)))
	if v, ok := s.streams.Get(key); ok {
		log.Debug().Str("lang", code).Msg("Token stream cache hit")
		return v.(token.Stream)
	}
	stream := s.tok.Tokenize(text, code, mode)
	s.streams.SetDefault(key, stream)
	return stream
}

func (s *Server) sentenceOptions(req mcp.CallToolRequest) sentence.Options {
	return sentence.Options{
		Exhaustive: req.GetBool("exhaustive", false),
		Window:     req.GetInt("window", s.window),
	}
}

func (s *Server) handleReconstruct(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stream, err := token.Parse(content, req.GetString("language", lang.Default))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid token stream: %v", err)), nil
	}

	cands := sentence.Reconstruct(stream, s.sentenceOptions(req))
	if cands == nil {
		cands = []sentence.Candidate{}
	}
	return jsonResult(cands)
}

func (s *Server) handleReconcile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("translations")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	translations := reconcile.NewTranslations()
	if err := json.Unmarshal([]byte(raw), translations); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("translations must be a JSON object of strings: %v", err)), nil
	}
	stream, err := token.Parse(content, req.GetString("language", lang.Default))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid token stream: %v", err)), nil
	}

	cands := sentence.Reconstruct(stream, s.sentenceOptions(req))
	return jsonResult(s.reconciler.ReconcileMap(cands, translations))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
