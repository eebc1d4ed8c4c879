package restapi

import (
	_ "embed"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//go:embed docs/swagger.yaml
var swaggerDoc []byte

const swaggerDocPath = "/docs/swagger.yaml"

// mountSwagger serves the OpenAPI document and the Swagger UI under uiPath.
func mountSwagger(router *gin.Engine, uiPath string) {
	uiPath = "/" + strings.Trim(uiPath, "/")
	if uiPath == "/" {
		uiPath = "/swagger"
	}
	router.GET(swaggerDocPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", swaggerDoc)
	})
	router.GET(uiPath+"/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(swaggerDocPath)))
}
