package config

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// mockSSMClient is a configurable mock for the SSM GetParameters API.
type mockSSMClient struct {
	values    map[string]string
	invalid   []string
	err       error
	callCount int
	batches   [][]string
}

func (m *mockSSMClient) GetParameters(_ context.Context, params *ssm.GetParametersInput, _ ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	m.callCount++
	m.batches = append(m.batches, params.Names)
	if m.err != nil {
		return nil, m.err
	}

	output := &ssm.GetParametersOutput{}
	for _, name := range params.Names {
		if v, ok := m.values[name]; ok {
			output.Parameters = append(output.Parameters, ssmtypes.Parameter{
				Name:  aws.String(name),
				Value: aws.String(v),
			})
		}
	}
	output.InvalidParameters = append(output.InvalidParameters, m.invalid...)
	return output, nil
}

func TestSSMProviderResolvesValues(t *testing.T) {
	client := &mockSSMClient{
		values: map[string]string{
			"/prod/billmail/database/url": "postgres://resolved",
			"/prod/billmail/mail/key":     "sg-key",
		},
	}
	provider := newSSMProviderWithClient("us-east-1", client)

	result, err := provider.GetParametersBatch(context.Background(), []string{
		"/prod/billmail/database/url",
		"/prod/billmail/mail/key",
	})
	if err != nil {
		t.Fatalf("GetParametersBatch returned error: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 results, got %d", len(result))
	}
	if result["/prod/billmail/database/url"] != "postgres://resolved" {
		t.Errorf("unexpected value: %q", result["/prod/billmail/database/url"])
	}
	if client.callCount != 1 {
		t.Errorf("callCount = %d, want 1", client.callCount)
	}
}

// TestSSMProviderBatching verifies the ten-parameter API limit is respected
// by splitting larger requests into multiple calls.
func TestSSMProviderBatching(t *testing.T) {
	values := make(map[string]string)
	var keys []string
	for i := 0; i < 23; i++ {
		key := fmt.Sprintf("/prod/billmail/param-%02d", i)
		values[key] = fmt.Sprintf("value-%02d", i)
		keys = append(keys, key)
	}

	client := &mockSSMClient{values: values}
	provider := newSSMProviderWithClient("us-east-1", client)

	result, err := provider.GetParametersBatch(context.Background(), keys)
	if err != nil {
		t.Fatalf("GetParametersBatch returned error: %v", err)
	}

	if len(result) != 23 {
		t.Errorf("expected 23 results, got %d", len(result))
	}
	if client.callCount != 3 {
		t.Errorf("callCount = %d, want 3 (batches of 10)", client.callCount)
	}
	if len(client.batches[0]) != 10 || len(client.batches[1]) != 10 || len(client.batches[2]) != 3 {
		t.Errorf("unexpected batch sizes: %d, %d, %d",
			len(client.batches[0]), len(client.batches[1]), len(client.batches[2]))
	}
}

func TestSSMProviderInvalidParameters(t *testing.T) {
	client := &mockSSMClient{
		invalid: []string{"/prod/billmail/missing"},
	}
	provider := newSSMProviderWithClient("us-east-1", client)

	_, err := provider.GetParametersBatch(context.Background(), []string{"/prod/billmail/missing"})
	if err == nil {
		t.Fatal("expected error for invalid parameters, got nil")
	}
	if !strings.Contains(err.Error(), "/prod/billmail/missing") {
		t.Errorf("error should name the missing parameter, got: %v", err)
	}
}

func TestSSMProviderAPIError(t *testing.T) {
	client := &mockSSMClient{err: fmt.Errorf("throttled")}
	provider := newSSMProviderWithClient("us-east-1", client)

	_, err := provider.GetParametersBatch(context.Background(), []string{"/prod/billmail/key"})
	if err == nil {
		t.Fatal("expected error when API fails, got nil")
	}
}

func TestSSMProviderContextCancelled(t *testing.T) {
	client := &mockSSMClient{values: map[string]string{}}
	provider := newSSMProviderWithClient("us-east-1", client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.GetParametersBatch(ctx, []string{"/prod/billmail/key"})
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
	if client.callCount != 0 {
		t.Errorf("callCount = %d, want 0 (cancelled before first batch)", client.callCount)
	}
}

func TestSSMProviderEmptyKeys(t *testing.T) {
	client := &mockSSMClient{}
	provider := newSSMProviderWithClient("us-east-1", client)

	result, err := provider.GetParametersBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetParametersBatch returned error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected empty result, got %v", result)
	}
	if client.callCount != 0 {
		t.Errorf("callCount = %d, want 0", client.callCount)
	}
}
