package repository

import (
	"context"

	"accessory-sync/internal/model"
	"accessory-sync/pkg/jira"
)

// TrackerRepository 工单系统（Jira）数据访问接口
type TrackerRepository interface {
	GetFieldContexts(ctx context.Context, fieldKey string) ([]model.FieldContext, error)
	ListOptions(ctx context.Context, fieldKey, contextID string) ([]model.CustomFieldOption, error)
	AddOptions(ctx context.Context, fieldKey, contextID string, values []string) error
	UpdateOptions(ctx context.Context, fieldKey, contextID string, options []model.CustomFieldOption) error
	DeleteOption(ctx context.Context, fieldKey, contextID, optionID string) error
	AddComment(ctx context.Context, issueKey, text string) error
}

type trackerRepo struct {
	client *jira.Client
}

// NewTrackerRepo 创建 TrackerRepository 实例
func NewTrackerRepo(client *jira.Client) TrackerRepository {
	return &trackerRepo{client: client}
}

func (r *trackerRepo) GetFieldContexts(ctx context.Context, fieldKey string) ([]model.FieldContext, error) {
	contexts, err := r.client.GetFieldContexts(ctx, fieldKey)
	if err != nil {
		return nil, err
	}

	result := make([]model.FieldContext, 0, len(contexts))
	for _, c := range contexts {
		result = append(result, model.FieldContext{ID: c.ID, Name: c.Name})
	}
	return result, nil
}

func (r *trackerRepo) ListOptions(ctx context.Context, fieldKey, contextID string) ([]model.CustomFieldOption, error) {
	options, err := r.client.ListOptions(ctx, fieldKey, contextID)
	if err != nil {
		return nil, err
	}

	result := make([]model.CustomFieldOption, 0, len(options))
	for _, o := range options {
		result = append(result, model.CustomFieldOption{ID: o.ID, Value: o.Value, Disabled: o.Disabled})
	}
	return result, nil
}

func (r *trackerRepo) AddOptions(ctx context.Context, fieldKey, contextID string, values []string) error {
	_, err := r.client.AddOptions(ctx, fieldKey, contextID, values)
	return err
}

func (r *trackerRepo) UpdateOptions(ctx context.Context, fieldKey, contextID string, options []model.CustomFieldOption) error {
	wire := make([]jira.Option, 0, len(options))
	for _, o := range options {
		wire = append(wire, jira.Option{ID: o.ID, Value: o.Value, Disabled: o.Disabled})
	}
	return r.client.UpdateOptions(ctx, fieldKey, contextID, wire)
}

func (r *trackerRepo) DeleteOption(ctx context.Context, fieldKey, contextID, optionID string) error {
	return r.client.DeleteOption(ctx, fieldKey, contextID, optionID)
}

func (r *trackerRepo) AddComment(ctx context.Context, issueKey, text string) error {
	return r.client.AddComment(ctx, issueKey, text)
}
