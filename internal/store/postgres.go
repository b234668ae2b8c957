package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"luontovahdit/internal/models"
	"luontovahdit/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// latitudeWindow is the latitude span in degrees covered by radiusMeters
// on the same sphere the distance expression uses.
func latitudeWindow(radiusMeters float64) float64 {
	return radiusMeters / (utils.EarthRadiusMeters * math.Pi / 180)
}

// great-circle distance in meters from (lon, lat) params to each row
const distanceSQL = `(? * 2 * asin(least(1, sqrt(
	power(sin(radians(latitude - ?) / 2), 2) +
	cos(radians(?)) * cos(radians(latitude)) * power(sin(radians(longitude - ?) / 2), 2)))))`

type Postgres struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func (p *Postgres) CreateUser(ctx context.Context, u *models.User) error {
	return translate(p.db.WithContext(ctx).Create(u).Error)
}

func (p *Postgres) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := p.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (p *Postgres) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := p.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (p *Postgres) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := p.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, translate(err)
}

func (p *Postgres) CreateHotspot(ctx context.Context, h *models.Hotspot) error {
	return translate(p.db.WithContext(ctx).Create(h).Error)
}

func (p *Postgres) ListHotspots(ctx context.Context, order models.HotspotOrder) ([]models.Hotspot, error) {
	q := p.db.WithContext(ctx)
	switch order {
	case models.OrderNewest:
		q = q.Order("created_at DESC")
	case models.OrderHot:
		q = q.Order("score DESC, created_at DESC")
	default:
		q = q.Order("created_at ASC")
	}

	var hotspots []models.Hotspot
	err := q.Find(&hotspots).Error
	return hotspots, translate(err)
}

func (p *Postgres) FindHotspot(ctx context.Context, id string) (*models.Hotspot, error) {
	var h models.Hotspot
	if err := p.db.WithContext(ctx).First(&h, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

func (p *Postgres) NearbyHotspots(ctx context.Context, lon, lat, radiusMeters float64, limit int) ([]models.Hotspot, error) {
	latDelta := latitudeWindow(radiusMeters)

	inner := p.db.Model(&models.Hotspot{}).
		Select("hotspots.*, "+distanceSQL+" AS distance", utils.EarthRadiusMeters, lat, lat, lon).
		Where("latitude BETWEEN ? AND ?", lat-latDelta, lat+latDelta)

	var hotspots []models.Hotspot
	err := p.db.WithContext(ctx).
		Table("(?) AS h", inner).
		Where("distance <= ?", radiusMeters).
		Order("distance ASC").
		Limit(limit).
		Find(&hotspots).Error
	return hotspots, translate(err)
}

func (p *Postgres) UpdateHotspot(ctx context.Context, id string, patch models.HotspotPatch) error {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}

	res := p.db.WithContext(ctx).Model(&models.Hotspot{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteHotspot(ctx context.Context, id string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var h models.Hotspot
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&h, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("in_hotspot = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments of hotspot %s: %w", id, err)
		}
		return tx.Where("id = ?", id).Delete(&models.Hotspot{}).Error
	})
}

func (p *Postgres) SetHotspotScore(ctx context.Context, id string, score int) error {
	res := p.db.WithContext(ctx).Model(&models.Hotspot{}).Where("id = ?", id).UpdateColumn("score", score)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) FlagHotspot(ctx context.Context, id string) error {
	return p.flag(ctx, &models.Hotspot{}, id)
}

func (p *Postgres) FlagComment(ctx context.Context, id string) error {
	return p.flag(ctx, &models.Comment{}, id)
}

func (p *Postgres) flag(ctx context.Context, model interface{}, id string) error {
	res := p.db.WithContext(ctx).Model(model).Where("id = ?", id).UpdateColumn("flagged", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateComment(ctx context.Context, c *models.Comment) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁住父热点，DeleteHotspot 会等待本事务提交
		var parent models.Hotspot
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&parent, "id = ?", c.InHotspot).Error; err != nil {
			return translate(err)
		}
		if err := tx.Create(c).Error; err != nil {
			return translate(err)
		}

		res := tx.Model(&models.Hotspot{}).
			Where("id = ?", c.InHotspot).
			UpdateColumn("comment_ids", gorm.Expr("array_append(comment_ids, ?)", c.ID))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 回滚，评论不会被保留
			return ErrParentGone
		}
		return nil
	})
}

func (p *Postgres) ListComments(ctx context.Context) ([]models.Comment, error) {
	var comments []models.Comment
	err := p.db.WithContext(ctx).Order("created_at ASC").Find(&comments).Error
	return comments, translate(err)
}

func (p *Postgres) ListCommentsByUser(ctx context.Context, userID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := p.db.WithContext(ctx).Where("added_by = ?", userID).Order("created_at ASC").Find(&comments).Error
	return comments, translate(err)
}

func (p *Postgres) FindComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := p.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (p *Postgres) FindCommentsByIDs(ctx context.Context, ids []string) ([]models.Comment, error) {
	if len(ids) == 0 {
		return []models.Comment{}, nil
	}

	var found []models.Comment
	if err := p.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, translate(err)
	}

	byID := make(map[string]models.Comment, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	ordered := make([]models.Comment, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

func (p *Postgres) UpdateCommentContent(ctx context.Context, id, content string) error {
	res := p.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"content":    content,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteComment(ctx context.Context, id string) (bool, error) {
	parentMissing := false
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Comment
		if err := tx.Select("id", "in_hotspot").First(&c, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Hotspot{}).
			Where("id = ?", c.InHotspot).
			UpdateColumn("comment_ids", gorm.Expr("array_remove(comment_ids, ?)", id))
		if res.Error != nil {
			return res.Error
		}
		parentMissing = res.RowsAffected == 0
		return nil
	})
	return parentMissing, err
}

func (p *Postgres) CastVote(ctx context.Context, kind models.ItemKind, id, voter string, dir models.VoteDirection) (bool, error) {
	var model interface{}
	switch kind {
	case models.KindHotspot:
		model = &models.Hotspot{}
	case models.KindComment:
		model = &models.Comment{}
	default:
		return false, fmt.Errorf("unknown vote target %q", kind)
	}

	counter, set := "up_votes", "up_voters"
	if dir == models.VoteDown {
		counter, set = "down_votes", "down_voters"
	}

	// 单条条件更新：只有该用户尚未投票时才会命中
	res := p.db.WithContext(ctx).Model(model).
		Where("id = ?", id).
		Where("NOT (? = ANY(COALESCE(up_voters, '{}'))) AND NOT (? = ANY(COALESCE(down_voters, '{}')))", voter, voter).
		UpdateColumns(map[string]interface{}{
			counter: gorm.Expr(counter + " + 1"),
			set:     gorm.Expr("array_append(COALESCE("+set+", '{}'), ?)", voter),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
