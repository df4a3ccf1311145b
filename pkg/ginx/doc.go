// Package ginx 提供 gin 框架的 handler 适配器，支持自动参数绑定和响应处理
//
// 请求和响应都使用 JSON 格式。
// 如果参数结构体实现了 IsValid() error 方法，绑定后会自动调用进行校验。
// 如果 handler 返回 *apierror.Error，响应状态码取自错误中定义的 HTTPStatus。
//
// 支持的 handler 函数签名：
//
//	// 1. 有参数，有返回值，有 error
//	func(c *gin.Context, args *Args) (resp, error)      // ginx.Adapt5
//
//	// 2. 有参数，只有 error
//	func(c *gin.Context, args *Args) error              // ginx.Adapt4
//
//	// 3. 无参数，有返回值，有 error
//	func(c *gin.Context) (resp, error)                  // ginx.Adapt2
//
// 使用示例：
//
//	router := gin.Default()
//	router.POST("/instances/run", ginx.Adapt5(func(c *gin.Context, args *RunInstanceRequest) (*RunInstanceResponse, error) {
//	    return &RunInstanceResponse{...}, nil
//	}))
package ginx
