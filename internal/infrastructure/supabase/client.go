package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// Client Supabaseクライアントのラッパー
type Client struct {
	client *supabase.Client
}

// NewClient プロジェクトURLとanonキーからクライアントを作成
func NewClient(url, anonKey string) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("SUPABASE_URLが設定されていません")
	}
	if anonKey == "" {
		return nil, fmt.Errorf("SUPABASE_ANON_KEYが設定されていません")
	}

	client, err := supabase.NewClient(url, anonKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("Supabaseクライアントの初期化に失敗: %w", err)
	}
	return &Client{client: client}, nil
}

// GetClient Supabaseクライアントを取得
func (c *Client) GetClient() *supabase.Client {
	return c.client
}

// HealthCheck クライアントが初期化済みかを確認する
func (c *Client) HealthCheck() error {
	if c.client == nil {
		return fmt.Errorf("Supabaseクライアントが初期化されていません")
	}
	return nil
}
