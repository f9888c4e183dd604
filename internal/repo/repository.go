package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"gin-gorm-querydsl/internal/query"
)

// Repository 单表通用读写：写走 gorm，读走 query 层
type Repository[T any] struct {
	f   *query.Factory
	src query.Source
	id  query.Path
}

func New[T any](f *query.Factory, src query.Source, id query.Path) *Repository[T] {
	return &Repository[T]{f: f, src: src, id: id}
}

func (r *Repository[T]) Factory() *query.Factory { return r.f }

// WithTx 返回绑定到事务的副本
func (r *Repository[T]) WithTx(tx *query.Factory) *Repository[T] {
	cp := *r
	cp.f = tx
	return &cp
}

// Save 主键为零值时插入，否则整行更新
func (r *Repository[T]) Save(ctx context.Context, m *T) error {
	return query.NewStorageError("save", r.f.DB().WithContext(ctx).Save(m).Error)
}

func (r *Repository[T]) SaveAll(ctx context.Context, ms []T) error {
	if len(ms) == 0 {
		return nil
	}
	return query.NewStorageError("save_all", r.f.DB().WithContext(ctx).Create(&ms).Error)
}

// FindByID 查不到返回 nil, nil
func (r *Repository[T]) FindByID(ctx context.Context, id any) (*T, error) {
	return query.SelectFrom[T](r.f, r.src).Where(r.id.Eq(id)).FetchOne(ctx)
}

func (r *Repository[T]) FindAll(ctx context.Context, p query.Predicate, orders ...query.OrderSpecifier) ([]T, error) {
	return query.SelectFrom[T](r.f, r.src).Where(p).OrderBy(orders...).Fetch(ctx)
}

// FindOne 多于一行时返回 query.ErrNonUniqueResult
func (r *Repository[T]) FindOne(ctx context.Context, p query.Predicate) (*T, error) {
	return query.SelectFrom[T](r.f, r.src).Where(p).FetchOne(ctx)
}

// FindPage 没有排序时按主键升序，保证分页稳定
func (r *Repository[T]) FindPage(ctx context.Context, p query.Predicate, offset, limit int64, orders ...query.OrderSpecifier) (query.Page[T], error) {
	if len(orders) == 0 {
		orders = []query.OrderSpecifier{r.id.Asc()}
	}
	return query.SelectFrom[T](r.f, r.src).
		Where(p).
		OrderBy(orders...).
		Offset(offset).
		Limit(limit).
		FetchResults(ctx)
}

func (r *Repository[T]) Count(ctx context.Context, p query.Predicate) (int64, error) {
	return query.SelectFrom[T](r.f, r.src).Where(p).FetchCount(ctx)
}

func (r *Repository[T]) Exists(ctx context.Context, p query.Predicate) (bool, error) {
	id, err := query.Select[int64](r.f, r.id).From(r.src).Where(p).FetchFirst(ctx)
	if err != nil {
		return false, err
	}
	return id != nil, nil
}

// DeleteByID 必须在事务内调用
func (r *Repository[T]) DeleteByID(ctx context.Context, id any) (bool, error) {
	n, err := r.f.Delete(r.src).Where(r.id.Eq(id)).Execute(ctx)
	return n > 0, err
}

// IsDuplicate 唯一键冲突
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 驱动未做错误翻译时按文本兜底
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
