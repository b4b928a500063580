package dispatcher

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/cargo-dispatch/agent/nodes"
)

const (
	nodeValidateRequest = "validate_request"
	nodeInvokeModel     = "invoke_model"
)

func (d *Dispatcher) compileHandleChatGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode(nodeValidateRequest,
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeValidateRequest, err)
	}

	if err := graph.AddLambdaNode(nodeInvokeModel,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.InvokeModel(ctx, in, d.decider, d.actions.Schemas(), d.modelTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeInvokeModel, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeComposeReply,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.ComposeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeComposeReply, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeDispatchAction,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.DispatchAction(ctx, in, d.actions)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeDispatchAction, err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			return nodex.RouteDecision(in)
		},
		map[string]bool{
			nodex.NodeComposeReply:   true,
			nodex.NodeDispatchAction: true,
		},
	)
	if err := graph.AddBranch(nodeInvokeModel, branch); err != nil {
		return nil, fmt.Errorf("add branch %s: %w", nodeInvokeModel, err)
	}

	edges := [][2]string{
		{compose.START, nodeValidateRequest},
		{nodeValidateRequest, nodeInvokeModel},
		{nodex.NodeComposeReply, compose.END},
		{nodex.NodeDispatchAction, compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("dispatcher.handle_chat"))
	if err != nil {
		return nil, fmt.Errorf("compile dispatcher graph: %w", err)
	}
	return runner, nil
}
