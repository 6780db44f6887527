package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sngm3741/survey-manager-api/internal/survey/application"
	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

// SurveyRepository はアンケート集約を MongoDB で扱う application.SurveyStore の実装。
type SurveyRepository struct {
	client  *mongo.Client
	surveys *mongo.Collection
}

var _ application.SurveyStore = (*SurveyRepository)(nil)

// NewSurveyRepository は指定コレクションを束縛したリポジトリを構築する。
func NewSurveyRepository(db *mongo.Database, collection string) *SurveyRepository {
	return &SurveyRepository{
		client:  db.Client(),
		surveys: db.Collection(collection),
	}
}

// EnsureIndexes は作成者ごとの一覧取得に使う {author, createdAt} インデックスを作成する。
func (r *SurveyRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.surveys.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("author_createdAt"),
	})
	if err != nil {
		return fmt.Errorf("create survey indexes: %w", err)
	}
	return nil
}

// Ping はヘルスチェック用に Primary への疎通を確認する。
func (r *SurveyRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// Create はアンケートを 1 件挿入し、採番済みの ID をそのまま返す。
func (r *SurveyRepository) Create(ctx context.Context, survey domain.Survey) (domain.SurveyID, error) {
	doc := newSurveyDocument(survey)
	if _, err := r.surveys.InsertOne(ctx, doc); err != nil {
		return "", domain.StoreFailure("create survey", err)
	}
	return survey.ID, nil
}

// Update は指定フィールドのみ $set で更新する。該当ドキュメントが無ければ NotFound。
func (r *SurveyRepository) Update(ctx context.Context, patch domain.SurveyPatch) (domain.SurveyID, error) {
	set := bson.M{"updatedAt": patch.UpdatedAt.UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Questions != nil {
		set["questions"] = mapQuestionDocuments(*patch.Questions)
	}

	filter := bson.M{"_id": patch.ID.String()}
	if patch.RequestingAuthor != "" {
		filter["author"] = patch.RequestingAuthor
	}

	result, err := r.surveys.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return "", domain.StoreFailure("update survey", err)
	}
	if result.MatchedCount == 0 {
		return "", domain.NotFound("survey", patch.ID)
	}
	return patch.ID, nil
}

// FindByID は作成者が一致する場合のみアンケートを返す。見つからなければ nil。
func (r *SurveyRepository) FindByID(ctx context.Context, id domain.SurveyID, requestingAuthor string) (json.RawMessage, error) {
	var doc SurveyDocument
	err := r.surveys.FindOne(ctx, bson.M{"_id": id.String(), "author": requestingAuthor}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StoreFailure("find survey", err)
	}

	payload, err := json.Marshal(domain.NewSurveyView(doc.toDomain()))
	if err != nil {
		return nil, domain.StoreFailure("encode survey", err)
	}
	return payload, nil
}

// FindByAuthor は作成日時の降順で作成者のアンケートを返す。page が nil なら全件。
func (r *SurveyRepository) FindByAuthor(ctx context.Context, author string, page *application.PageConfig) (json.RawMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	if page != nil {
		opts.SetSkip(int64(page.Offset())).SetLimit(int64(page.Size))
	}

	cursor, err := r.surveys.Find(ctx, bson.M{"author": author}, opts)
	if err != nil {
		return nil, domain.StoreFailure("list surveys", err)
	}
	defer cursor.Close(ctx)

	views := make([]domain.SurveyView, 0)
	for cursor.Next(ctx) {
		var doc SurveyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, domain.StoreFailure("decode survey", err)
		}
		views = append(views, domain.NewSurveyView(doc.toDomain()))
	}
	if err := cursor.Err(); err != nil {
		return nil, domain.StoreFailure("list surveys", err)
	}

	payload, err := json.Marshal(views)
	if err != nil {
		return nil, domain.StoreFailure("encode surveys", err)
	}
	return payload, nil
}
