package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	orderactivities "github.com/Apurer/go-gin-storefront/internal/durable/temporal/activities/orders"
)

func TestCompensationWorkflow_ReleasesStockThenPromo(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	var calls []string
	env.RegisterWorkflowWithOptions(CompensationWorkflow, workflow.RegisterOptions{Name: CompensationWorkflowName})
	env.RegisterActivityWithOptions(func(_ context.Context, orderID string) error {
		calls = append(calls, "stock:"+orderID)
		return nil
	}, activity.RegisterOptions{Name: orderactivities.ReleaseStockActivityName})
	env.RegisterActivityWithOptions(func(_ context.Context, orderID string) error {
		calls = append(calls, "promo:"+orderID)
		return nil
	}, activity.RegisterOptions{Name: orderactivities.ReleasePromoActivityName})

	env.ExecuteWorkflow(CompensationWorkflowName, CompensationWorkflowInput{OrderID: "ORD-20260101-ABCDE12"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, []string{"stock:ORD-20260101-ABCDE12", "promo:ORD-20260101-ABCDE12"}, calls)
}

func TestCompensationWorkflow_StopsWhenStockReleaseKeepsFailing(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	promoCalled := false
	env.RegisterWorkflowWithOptions(CompensationWorkflow, workflow.RegisterOptions{Name: CompensationWorkflowName})
	env.RegisterActivityWithOptions(func(context.Context, string) error {
		return errors.New("catalog unavailable")
	}, activity.RegisterOptions{Name: orderactivities.ReleaseStockActivityName})
	env.RegisterActivityWithOptions(func(context.Context, string) error {
		promoCalled = true
		return nil
	}, activity.RegisterOptions{Name: orderactivities.ReleasePromoActivityName})

	env.ExecuteWorkflow(CompensationWorkflowName, CompensationWorkflowInput{OrderID: "ORD-20260101-ABCDE12"})

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
	assert.False(t, promoCalled)
}
