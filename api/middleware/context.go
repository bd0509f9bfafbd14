package middleware

import (
	"context"

	"github.com/angelmondragon/humidityzone-backend/pkg/enums"
)

type operatorKey struct{}

type operator struct {
	subject string
	role    enums.OperatorRole
}

func operatorFrom(ctx context.Context) operator {
	if ctx == nil {
		return operator{}
	}
	op, _ := ctx.Value(operatorKey{}).(operator)
	return op
}

// SubjectFromContext returns the operator identity set by Auth.
func SubjectFromContext(ctx context.Context) string {
	return operatorFrom(ctx).subject
}

// RoleFromContext returns the operator role, or "" on unauthenticated routes.
func RoleFromContext(ctx context.Context) enums.OperatorRole {
	return operatorFrom(ctx).role
}

// WithOperator injects the operator identity and role into the context.
func WithOperator(ctx context.Context, subject string, role enums.OperatorRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, operatorKey{}, operator{subject: subject, role: role})
}
