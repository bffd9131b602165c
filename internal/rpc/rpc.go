// Package rpc describes the gRPC surface shared by the daybook client and
// the development server. Messages are protobuf well-known types: entities
// travel as google.protobuf.Struct, ids as Int64Value.
//
// Each entity kind is served by its own service:
//
//	daybook.v1.<Kind>Service/Create  Struct(payload)          -> Struct(entity)
//	daybook.v1.<Kind>Service/Update  Struct{id, fields}       -> Struct(entity)
//	daybook.v1.<Kind>Service/Delete  Int64Value(id)           -> Empty
//	daybook.v1.<Kind>Service/List    Struct(filters)          -> ListValue(entities)
//
// and daybook.v1.HealthService/Ping checks reachability.
package rpc

import (
	"strings"
	"unicode"
)

const (
	HealthServiceName = "daybook.v1.HealthService"
	PingMethod        = "/" + HealthServiceName + "/Ping"
)

const (
	OpCreate = "Create"
	OpUpdate = "Update"
	OpDelete = "Delete"
	OpList   = "List"
)

// ServiceName returns the fully qualified service name for an entity kind,
// e.g. "tasks" -> "daybook.v1.TasksService".
func ServiceName(kind string) string {
	r := []rune(strings.ToLower(kind))
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return "daybook.v1." + string(r) + "Service"
}

// FullMethod returns "/<service>/<op>" for kind.
func FullMethod(kind, op string) string {
	return "/" + ServiceName(kind) + "/" + op
}
