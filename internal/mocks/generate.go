package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/progress --output domain/progress --outpkg progressmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name CatalogProvider --dir ../usecase --output usecase --outpkg usecasemock --filename catalog_provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name DateProvider --dir ../usecase --output usecase --outpkg usecasemock --filename date_provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name PredictionTrigger --dir ../usecase --output usecase --outpkg usecasemock --filename prediction_trigger_mock.go
