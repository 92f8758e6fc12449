package providers

import (
	"github.com/samber/do/v2"

	"github.com/shadownovel/catalog/internal/auth"
	"github.com/shadownovel/catalog/internal/config"
	"github.com/shadownovel/catalog/internal/logger"
	"github.com/shadownovel/catalog/internal/service"
	"github.com/shadownovel/catalog/internal/validation"
)

// ProvideUserService provides the user directory service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	hasher := do.MustInvoke[*auth.Hasher](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, v, hasher, log.Component("catalog:user").Logger), nil
}

// ProvideNovelService provides the novel and volume service.
func ProvideNovelService(i do.Injector) (*service.NovelService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNovelService(storeHandle.Store, v, cfg.Paging, log.Component("catalog:novel").Logger), nil
}

// ProvideChapterService provides the chapter service.
func ProvideChapterService(i do.Injector) (*service.ChapterService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewChapterService(storeHandle.Store, v, cfg.Paging, cfg.Chapters, log.Component("catalog:chapter").Logger), nil
}
