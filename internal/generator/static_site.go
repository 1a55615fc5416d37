package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/vertiljivenson9/Project-prey/internal/domain/entity"
)

// StaticSiteGenerator is the default generation strategy: a minimal static
// site scaffold. It satisfies usecase.Generator; alternative strategies can
// replace it without touching the pipeline.
type StaticSiteGenerator struct{}

func (StaticSiteGenerator) Generate(_ context.Context, config map[string]any) ([]entity.GeneratedFile, error) {
	if config == nil {
		return nil, errors.New("invalid project configuration")
	}

	name := "Generated Project"
	if v, ok := config["name"].(string); ok && v != "" {
		name = v
	}

	return []entity.GeneratedFile{
		{
			Path: "index.html",
			Content: fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>%s</title>
  <link rel="stylesheet" href="./styles/main.css">
</head>
<body>
  <div id="app"></div>
  <script src="./scripts/main.js"></script>
</body>
</html>`, name),
		},
		{
			Path: "styles/main.css",
			Content: `body {
  margin: 0;
  font-family: Arial, Helvetica, sans-serif;
}`,
		},
		{
			Path:    "scripts/main.js",
			Content: `document.getElementById('app').innerHTML = '<h1>Project Ready</h1>';`,
		},
	}, nil
}
