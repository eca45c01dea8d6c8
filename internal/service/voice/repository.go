package voice

import (
	"context"
	"errors"

	"support-chat-backend/internal/database"
	"support-chat-backend/internal/model"
)

var ErrNotFound = errors.New("plugin repository: not found")

type Repository interface {
	GetPlugin(ctx context.Context, organizationID, service string) (model.PluginItem, error)
	PutPlugin(ctx context.Context, plugin model.PluginItem) error
	DeletePlugin(ctx context.Context, organizationID, service string) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func pluginKey(organizationID, service string) string {
	return model.OrganizationScopedPK(organizationID, service)
}

func (r *DynamoRepository) GetPlugin(ctx context.Context, organizationID, service string) (model.PluginItem, error) {
	var plugin model.PluginItem
	err := r.db.Client.GetItem(ctx, model.PluginsTable, database.StringKey("pk", pluginKey(organizationID, service)), &plugin)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.PluginItem{}, ErrNotFound
		}
		return model.PluginItem{}, err
	}
	return plugin, nil
}

func (r *DynamoRepository) PutPlugin(ctx context.Context, plugin model.PluginItem) error {
	return r.db.Client.PutItem(ctx, model.PluginsTable, plugin)
}

func (r *DynamoRepository) DeletePlugin(ctx context.Context, organizationID, service string) error {
	return r.db.Client.DeleteItem(ctx, model.PluginsTable, database.StringKey("pk", pluginKey(organizationID, service)))
}
