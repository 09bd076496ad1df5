package handlers

import (
	"time"

	"album-slideshow/internal/album"
	"album-slideshow/internal/render"
	"album-slideshow/internal/store"
)

// Handlers bundles the HTTP control surface over the render engine.
type Handlers struct {
	engine    *render.Engine
	settings  *store.Settings
	albums    *album.Coordinator
	startTime time.Time
}

// New creates the handler set.
func New(engine *render.Engine, settings *store.Settings, albums *album.Coordinator) *Handlers {
	return &Handlers{
		engine:    engine,
		settings:  settings,
		albums:    albums,
		startTime: time.Now(),
	}
}
