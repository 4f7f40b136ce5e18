package generator

import "github.com/Fercho9134/SO1-S12025-202200349/internal/model"

type Generator interface {
	Generate() model.Report
}
