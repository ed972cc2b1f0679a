package handler

import (
	"parlor/internal/app/chat"
	"parlor/internal/app/store"
	"parlor/internal/configs"
	"parlor/internal/pkg/pow"
)

// AppDeps bundles the collaborators the HTTP layer needs.
type AppDeps struct {
	Chat   *chat.Service
	Config *configs.AppConfig
	Store  *store.Store
	Pow    *pow.PoWManager
}
