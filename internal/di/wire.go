//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/sandeepkv93/product-media-catalog/internal/app"
)

func InitializeApp() (*app.App, error) {
	panic(wire.Build(
		ConfigSet,
		ObservabilitySet,
		RuntimeInfraSet,
		RepositorySet,
		MediaSet,
		ServiceSet,
		HTTPSet,
		AppSet,
	))
}

func InitializeToolRuntime() (*ToolRuntime, error) {
	panic(wire.Build(
		ConfigSet,
		provideToolLogger,
		provideStores,
		RepositorySet,
		provideObjectStore,
		NewToolRuntime,
	))
}
