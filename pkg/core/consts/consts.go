package consts

// TraceKey 上下文中链路ID的键
const TraceKey = "TraceId"

// TraceHeaderName 链路ID请求头
const TraceHeaderName = "X-Trace-Id"

// UserIDKey fiber Locals 中用户ID的键
const UserIDKey = "user_id"
