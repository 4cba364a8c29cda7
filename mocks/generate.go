package mocks

//go:generate mockgen -destination=./mock_source.go -package=mocks github.com/rxtech-lab/argo-archiver/pkg/archive/provider Source
//go:generate mockgen -destination=./mock_day_writer.go -package=mocks github.com/rxtech-lab/argo-archiver/pkg/archive/writer DayWriter
//go:generate mockgen -destination=./mock_symbol_lister.go -package=mocks github.com/rxtech-lab/argo-archiver/pkg/archive SymbolLister
