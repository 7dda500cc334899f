package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"S2Grid-App/internal/domain/repository"
)

const coverageCollection = "coverageCache"

// firestoreMaxCells 1ドキュメント1MiBの制限に収まるセル数の上限
const firestoreMaxCells = 40000

// FirestoreCoverageDoc Firestoreに保存するカバレッジ
// expires_atにTTLポリシーを設定しておくと期限切れのドキュメントは自動で消える
type FirestoreCoverageDoc struct {
	Key       string    `firestore:"key"`
	Cells     []string  `firestore:"cells"`
	CreatedAt time.Time `firestore:"created_at"`
	ExpiresAt time.Time `firestore:"expires_at"`
}

// FirestoreCoverageRepository Firestoreを使用したカバレッジキャッシュ
type FirestoreCoverageRepository struct {
	client *firestore.Client
	now    func() time.Time
}

// NewFirestoreCoverageRepository 新しいFirestoreCoverageRepositoryインスタンスを作成
func NewFirestoreCoverageRepository(client *firestore.Client) *FirestoreCoverageRepository {
	return &FirestoreCoverageRepository{
		client: client,
		now:    time.Now,
	}
}

var _ repository.CoverageCacheRepository = (*FirestoreCoverageRepository)(nil)

// docID ドキュメントIDに使えない"/"を置き換える
func docID(key string) string {
	return strings.ReplaceAll(key, "/", "_")
}

func (r *FirestoreCoverageRepository) Get(ctx context.Context, key string) ([]string, bool, error) {
	doc, err := r.client.Collection(coverageCollection).Doc(docID(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("カバレッジの取得に失敗しました: %w", err)
	}

	var data FirestoreCoverageDoc
	if err := doc.DataTo(&data); err != nil {
		return nil, false, fmt.Errorf("データの変換に失敗しました: %w", err)
	}
	// TTL削除は即時ではないので期限を自分でも確認する
	if !data.ExpiresAt.IsZero() && r.now().After(data.ExpiresAt) {
		return nil, false, nil
	}
	return data.Cells, true, nil
}

// Set 上限を超える結果は保存しない
func (r *FirestoreCoverageRepository) Set(ctx context.Context, key string, cells []string, ttl time.Duration) error {
	if len(cells) > firestoreMaxCells {
		return nil
	}
	now := r.now()
	data := FirestoreCoverageDoc{
		Key:       key,
		Cells:     cells,
		CreatedAt: now,
	}
	if ttl > 0 {
		data.ExpiresAt = now.Add(ttl)
	}

	if _, err := r.client.Collection(coverageCollection).Doc(docID(key)).Set(ctx, data); err != nil {
		return fmt.Errorf("カバレッジの保存に失敗しました: %w", err)
	}
	return nil
}
