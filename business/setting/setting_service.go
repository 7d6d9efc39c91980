package setting

import (
	"context"
	"fmt"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"strconv"
	"strings"
)

type SettingRepository interface {
	Create(ctx context.Context, s *domain.Setting) error
	FindByKey(ctx context.Context, key string) (domain.Setting, error)
	FindAll(ctx context.Context, category domain.SettingCategory) ([]domain.Setting, error)
	FindByKeys(ctx context.Context, keys []string) ([]domain.Setting, error)
	UpdateValue(ctx context.Context, key, value string) error
	Upsert(ctx context.Context, settings []domain.Setting) error
	Delete(ctx context.Context, key string) error
}

type settingService struct {
	repo SettingRepository
}

func NewSettingService(repo SettingRepository) *settingService {
	return &settingService{repo: repo}
}

const (
	defaultLanguage = "en"
	defaultTimezone = "UTC"
)

func (s *settingService) CreateSetting(ctx context.Context, in domain.Setting) (domain.Setting, error) {
	in.Key = strings.TrimSpace(in.Key)
	if in.Key == "" {
		return domain.Setting{}, domain.NewValidation("setting key is required")
	}
	if in.Category == "" {
		in.Category = domain.SettingGeneral
	}
	if !in.Category.Valid() {
		return domain.Setting{}, domain.NewValidation("invalid setting category: %s", in.Category)
	}

	if err := s.repo.Create(ctx, &in); err != nil {
		logger.Error("Failed to create setting", "key", in.Key, "error", err)
		return domain.Setting{}, err
	}
	return in, nil
}

func (s *settingService) GetSetting(ctx context.Context, key string) (domain.Setting, error) {
	return s.repo.FindByKey(ctx, key)
}

// ListSettings returns every setting, or those of one category when given.
func (s *settingService) ListSettings(ctx context.Context, category domain.SettingCategory) ([]domain.Setting, error) {
	if category != "" && !category.Valid() {
		return nil, domain.NewValidation("invalid setting category: %s", category)
	}
	return s.repo.FindAll(ctx, category)
}

func (s *settingService) UpdateSetting(ctx context.Context, key, value string) (domain.Setting, error) {
	if err := s.repo.UpdateValue(ctx, key, value); err != nil {
		return domain.Setting{}, err
	}
	return s.repo.FindByKey(ctx, key)
}

func (s *settingService) DeleteSetting(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

func (s *settingService) values(ctx context.Context, keys ...string) (map[string]string, error) {
	settings, err := s.repo.FindByKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	out := make(map[string]string, len(settings))
	for _, st := range settings {
		out[st.Key] = st.Value
	}
	return out, nil
}

func (s *settingService) OrganizationSettings(ctx context.Context) (domain.OrganizationSettings, error) {
	v, err := s.values(ctx, domain.SettingOrgName, domain.SettingOrgAddress, domain.SettingOrgContact, domain.SettingOrgPhone)
	if err != nil {
		return domain.OrganizationSettings{}, err
	}
	return domain.OrganizationSettings{
		Name:    v[domain.SettingOrgName],
		Address: v[domain.SettingOrgAddress],
		Contact: v[domain.SettingOrgContact],
		Phone:   v[domain.SettingOrgPhone],
	}, nil
}

func (s *settingService) NotificationSettings(ctx context.Context) (domain.NotificationSettings, error) {
	v, err := s.values(ctx, domain.SettingEmailAlerts, domain.SettingSMSAlerts)
	if err != nil {
		return domain.NotificationSettings{}, err
	}
	return domain.NotificationSettings{
		EmailAlerts: parseBool(v[domain.SettingEmailAlerts]),
		SMSAlerts:   parseBool(v[domain.SettingSMSAlerts]),
	}, nil
}

func (s *settingService) GeneralSettings(ctx context.Context) (domain.GeneralSettings, error) {
	v, err := s.values(ctx, domain.SettingLanguage, domain.SettingTimezone)
	if err != nil {
		return domain.GeneralSettings{}, err
	}
	out := domain.GeneralSettings{Language: v[domain.SettingLanguage], Timezone: v[domain.SettingTimezone]}
	if out.Language == "" {
		out.Language = defaultLanguage
	}
	if out.Timezone == "" {
		out.Timezone = defaultTimezone
	}
	return out, nil
}

func (s *settingService) UpdateOrganizationSettings(ctx context.Context, in domain.OrganizationSettings) (domain.OrganizationSettings, error) {
	err := s.upsert(ctx, domain.SettingOrganization, map[string]string{
		domain.SettingOrgName:    in.Name,
		domain.SettingOrgAddress: in.Address,
		domain.SettingOrgContact: in.Contact,
		domain.SettingOrgPhone:   in.Phone,
	})
	if err != nil {
		return domain.OrganizationSettings{}, err
	}
	return s.OrganizationSettings(ctx)
}

func (s *settingService) UpdateNotificationSettings(ctx context.Context, in domain.NotificationSettings) (domain.NotificationSettings, error) {
	err := s.upsert(ctx, domain.SettingNotification, map[string]string{
		domain.SettingEmailAlerts: strconv.FormatBool(in.EmailAlerts),
		domain.SettingSMSAlerts:   strconv.FormatBool(in.SMSAlerts),
	})
	if err != nil {
		return domain.NotificationSettings{}, err
	}
	return s.NotificationSettings(ctx)
}

func (s *settingService) UpdateGeneralSettings(ctx context.Context, in domain.GeneralSettings) (domain.GeneralSettings, error) {
	values := map[string]string{}
	if in.Language != "" {
		values[domain.SettingLanguage] = in.Language
	}
	if in.Timezone != "" {
		values[domain.SettingTimezone] = in.Timezone
	}
	if err := s.upsert(ctx, domain.SettingGeneral, values); err != nil {
		return domain.GeneralSettings{}, err
	}
	return s.GeneralSettings(ctx)
}

func (s *settingService) upsert(ctx context.Context, category domain.SettingCategory, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	settings := make([]domain.Setting, 0, len(values))
	for k, v := range values {
		settings = append(settings, domain.Setting{Key: k, Value: v, Category: category})
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		logger.Error("Failed to update settings", "category", category, "error", err)
		return err
	}
	return nil
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
