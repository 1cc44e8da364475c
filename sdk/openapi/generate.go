package openapi

//go:generate go run github.com/deepmap/oapi-codegen/cmd/oapi-codegen@v1.16.3 -config config.yaml ../../api/openapi.yaml
