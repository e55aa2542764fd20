package handlers

import (
	"fieldops/internal/pin"
	"fieldops/internal/realtime"
	"fieldops/internal/signaling"
	"fieldops/internal/storage"
)

// Зависимости хендлеров; заполняются один раз на старте (cmd/server)
// либо тестовой обвязкой. База — отдельный глобал database.DB.
var (
	bus     realtime.Bus
	feed    *realtime.Feed
	signal  *signaling.Service
	objects storage.ObjectStore
	pins    pin.Store

	publicBaseURL string
)

func Setup(b realtime.Bus, f *realtime.Feed, s *signaling.Service, store storage.ObjectStore, pinStore pin.Store, baseURL string) {
	bus = b
	feed = f
	signal = s
	objects = store
	pins = pinStore
	publicBaseURL = baseURL
}
