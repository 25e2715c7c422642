package oidc

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/oauth2"
)

// ErrNoIDToken is returned when a code exchange response carries no id_token
var ErrNoIDToken = errors.New("token response has no id_token")

// ClientConfig describes the OAuth2 client registered with the provider
type ClientConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string // empty for public clients
	RedirectURI  string
}

// Client wraps OAuth2 authorization-code functionality
type Client struct {
	config *oauth2.Config
}

// NewClient creates a new OAuth2 client for the provider
func NewClient(cfg ClientConfig) *Client {
	issuer := strings.TrimSuffix(cfg.Issuer, "/")
	return &Client{config: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  issuer + "/oauth2/authorize",
			TokenURL: issuer + "/oauth2/token",
		},
	}}
}

// ExchangeCode exchanges an authorization code for tokens
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.config.Exchange(ctx, code)
}

// ExchangeIDToken exchanges an authorization code and returns the raw id_token
func (c *Client) ExchangeIDToken(ctx context.Context, code string) (string, error) {
	token, err := c.ExchangeCode(ctx, code)
	if err != nil {
		return "", err
	}
	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", ErrNoIDToken
	}
	return idToken, nil
}

// AuthCodeURL returns the authorization URL
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// LoginConfig returns what a frontend needs to start the authorization-code flow
func (c *Client) LoginConfig() *LoginConfig {
	return &LoginConfig{
		AuthorizationEndpoint: c.config.Endpoint.AuthURL,
		TokenEndpoint:         c.config.Endpoint.TokenURL,
		ClientID:              c.config.ClientID,
		RedirectURI:           c.config.RedirectURL,
		Scope:                 strings.Join(c.config.Scopes, " "),
	}
}

// LoginConfig contains OIDC login configuration for frontend
type LoginConfig struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	ClientID              string `json:"client_id"`
	RedirectURI           string `json:"redirect_uri"`
	Scope                 string `json:"scope"`
}
