package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"rfpdash/internal"
	"rfpdash/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newTestClient(fn roundTripFunc) *Client {
	client := NewClient(config.Config{APIBaseURL: "https://example.test/"}, nil)
	client.httpClient = &http.Client{Transport: fn}
	return client
}

const pipelineBody = `{
  "status": "success",
  "data": {
    "rfp_id": "RFP-2024-001",
    "title": "Power Cable Supply for Metro Rail Project",
    "issuer": "Delhi Metro Rail Corporation",
    "due_date": "2025-01-15",
    "summary": {"total_material_cost": 300, "total_test_cost": 25.5, "grand_total_cost": 325.5},
    "pricing_analysis": {
      "pricing_summary": [
        {"item_no": 1, "sku": "SKU-A", "quantity": "500", "material_cost": 100, "test_cost_total": 10, "total_cost": 110, "match_percent": 100},
        {"item_no": 2, "sku": "SKU-B", "quantity": 20, "materialCost": 200, "test_cost": 15.5, "total_cost": 215.5, "match_percent": 83.3}
      ]
    },
    "technical_analysis": {
      "items": [
        {
          "item_index": 1,
          "description": "3C x 2.5 sqmm PVC cable",
          "final_recommended_sku": "SKU-A",
          "final_match_percent": 100,
          "quantity": "500",
          "rfp_specs": {"cores": 3, "voltage": "1.1 kV"},
          "comparison_table": {
            "parameters": ["cores", "voltage"],
            "rfp_values": {"cores": 3, "voltage": "1.1 kV"},
            "skus": [{"sku_id": "SKU-A", "values": {"cores": "3", "voltage": "1.1 kV"}, "match_percent": 100}]
          }
        },
        {"item_index": "2", "description": "4C x 16 sqmm", "final_recommended_sku": "SKU-B", "final_match_percent": 120}
      ]
    },
    "sales_proposal": {"stage": "Proposal", "value": 2500000}
  }
}`

func TestRunPipelineNormalizesPayload(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/rfp/run-pipeline", r.URL.Path)
		return jsonResponse(http.StatusOK, pipelineBody), nil
	})

	result, err := client.RunPipeline(context.Background())
	require.NoError(t, err)

	require.Equal(t, "RFP-2024-001", result.RfpID)
	require.Equal(t, 325.5, result.Summary.GrandTotal)
	require.Len(t, result.PricingAnalysis.PricingSummary, 2)
	require.Equal(t, "1", result.PricingAnalysis.PricingSummary[0].ItemNo)
	require.Equal(t, 500.0, result.PricingAnalysis.PricingSummary[0].Quantity)
	require.Equal(t, 200.0, result.PricingAnalysis.PricingSummary[1].MaterialCost)
	require.Equal(t, 15.5, result.PricingAnalysis.PricingSummary[1].TestCost)

	items := result.TechnicalAnalysis.Items
	require.Len(t, items, 2)
	require.Equal(t, internal.NumberValue(3), items[0].ComparisonTable.RfpValues["cores"])
	require.Equal(t, internal.TextValue("3"), items[0].ComparisonTable.SKUs[0].Values["cores"])
	require.Equal(t, "3", items[0].RfpSpecs["cores"])
	require.Equal(t, 2, items[1].ItemIndex)
	require.Equal(t, 100.0, items[1].FinalMatchPercent)
	require.Nil(t, items[1].ComparisonTable)

	var proposal map[string]any
	require.NoError(t, json.Unmarshal(result.SalesProposal, &proposal))
	require.Equal(t, "Proposal", proposal["stage"])
}

func TestRunPipelineRejectsDuplicateIndexes(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":{"technical_analysis":{"items":[{"item_index":1},{"item_index":1}]}}}`), nil
	})

	_, err := client.RunPipeline(context.Background())
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, OpRunPipeline, failure.Op)
	require.Contains(t, failure.Message, "duplicate item_index")
}

func TestRunPipelineRejectsNegativeMoney(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":{"summary":{"grand_total_cost":-5}}}`), nil
	})

	_, err := client.RunPipeline(context.Background())
	var failure *Failure
	require.ErrorAs(t, err, &failure)
}

func TestRunPipelineRejectsUnusableNumbers(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "overflowing total", body: `{"data":{"summary":{"grand_total_cost":1e400}}}`, want: "summary.grand_total_cost"},
		{name: "infinity text", body: `{"data":{"pricing_analysis":{"pricing_summary":[{"sku":"A","total_cost":"Infinity"}]}}}`, want: "pricing_summary[0].total_cost"},
		{name: "signed money in text", body: `{"data":{"summary":{"grand_total_cost":"Rs -500"}}}`, want: "summary.grand_total_cost"},
		{name: "negative quantity in text", body: `{"data":{"pricing_analysis":{"pricing_summary":[{"sku":"A","quantity":"-20 m"}]}}}`, want: "pricing_summary[0].quantity"},
		{name: "overflowing index", body: `{"data":{"technical_analysis":{"items":[{"item_index":1e30}]}}}`, want: "item_index"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(func(r *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, tc.body), nil
			})

			_, err := client.RunPipeline(context.Background())
			var failure *Failure
			require.ErrorAs(t, err, &failure)
			require.Equal(t, OpRunPipeline, failure.Op)
			require.Contains(t, failure.Message, tc.want)
		})
	}
}

func TestRunPipelineKeepsFreeTextQuantity(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":{"pricing_analysis":{"pricing_summary":[{"sku":"A","quantity":"1,200 m","total_cost":"250"}]}}}`), nil
	})

	result, err := client.RunPipeline(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1200.0, result.PricingAnalysis.PricingSummary[0].Quantity)
	require.Equal(t, 250.0, result.PricingAnalysis.PricingSummary[0].TotalCost)
}

func TestRunPipelineKeepsComparisonValuesExact(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":{"technical_analysis":{"items":[{"item_index":1,"final_recommended_sku":"A",
		  "comparison_table":{"parameters":["insulation","size"],"rfp_values":{"insulation":"PVC ","size":"2.50"},
		  "skus":[{"sku_id":"A","values":{"insulation":"PVC","size":2.5,"armoured":true}}]}}]}}}`), nil
	})

	result, err := client.RunPipeline(context.Background())
	require.NoError(t, err)
	table := result.TechnicalAnalysis.Items[0].ComparisonTable
	require.Equal(t, internal.TextValue("PVC "), table.RfpValues["insulation"])
	require.Equal(t, internal.TextValue("2.50"), table.RfpValues["size"])
	require.Equal(t, map[string]internal.SpecValue{
		"insulation": internal.TextValue("PVC"),
		"size":       internal.NumberValue(2.5),
	}, table.SKUs[0].Values)
}

func TestNonSuccessStatusIsFailure(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, `{"detail":"pipeline crashed"}`), nil
	})

	_, err := client.RunPipeline(context.Background())
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, http.StatusInternalServerError, failure.Status)
	require.Equal(t, "pipeline crashed", failure.Message)
}

func TestNonSuccessWithoutBodyMessage(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, `<html>bad gateway</html>`), nil
	})

	_, err := client.DashboardStats(context.Background())
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, "An error occurred", failure.Message)
}

func TestTransportErrorIsFailure(t *testing.T) {
	boom := errors.New("connection refused")
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return nil, boom
	})

	_, err := client.ListRFPs(context.Background())
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, 0, failure.Status)
	require.Contains(t, failure.Message, "network error")
	require.ErrorIs(t, err, boom)
}

func TestEmptyIDFailsWithoutRequest(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request %s", r.URL)
		return nil, nil
	})

	_, err := client.GetRFP(context.Background(), "  ")
	var failure *Failure
	require.ErrorAs(t, err, &failure)

	_, err = client.RunTechnicalMatching(context.Background(), "")
	require.ErrorAs(t, err, &failure)
	require.Equal(t, OpTechnicalMatching, failure.Op)
}

func TestEndpointsAgainstServer(t *testing.T) {
	calls := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls[r.Method+" "+r.URL.Path]++
		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "GET /api/rfps":
			_, _ = io.WriteString(w, `[{"id":"RFP-1","name":"Metro cables","issuer":"DMRC","dueDate":"2025-01-15","status":"In Progress"}]`)
		case "GET /api/rfps/RFP-1":
			_, _ = io.WriteString(w, `{"status":"success","data":{"id":"RFP-1","name":"Metro cables","status":"Completed"}}`)
		case "POST /api/technical-matching/RFP-1":
			_, _ = io.WriteString(w, `{"rfp_id":"RFP-1","matches":[{"sku":"SKU-A"}],"score":87.5}`)
		case "GET /api/dashboard/stats":
			_, _ = io.WriteString(w, `{"status":"success","total_rfps":2,"data":{"pipelineStatus":{"labels":["Discovered","Analyzed","Priced","Submitted","Won"],"counts":[2,2,2,1,1]},"agentContribution":{"agents":["Sales Agent","Technical Agent","Pricing Agent"],"tasks":[2,6,2]}}}`)
		case "POST /api/ai-insights":
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["page_type"] != "dashboard" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = io.WriteString(w, `{"detail":"bad page type"}`)
				return
			}
			_, _ = io.WriteString(w, `{"insights":{"summary":"Tracking 2 RFPs","key_metrics":[{"label":"Win Rate","value":"50%"}],"recommendations":["Follow up"]}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(config.Config{APIBaseURL: srv.URL}, nil)
	ctx := context.Background()

	rfps, err := client.ListRFPs(ctx)
	require.NoError(t, err)
	require.Len(t, rfps, 1)
	require.Equal(t, "DMRC", rfps[0].Issuer)

	rfp, err := client.GetRFP(ctx, "RFP-1")
	require.NoError(t, err)
	require.Equal(t, "Completed", string(rfp.Status))

	match, err := client.RunTechnicalMatching(ctx, "RFP-1")
	require.NoError(t, err)
	require.Equal(t, 87.5, match.Score)
	require.Len(t, match.Matches, 1)

	stats, err := client.DashboardStats(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{2, 2, 2, 1, 1}, stats.PipelineStatus.Counts)

	insights, err := client.Insights(ctx, "dashboard", map[string]any{"win_rate": 50})
	require.NoError(t, err)
	require.Equal(t, "Tracking 2 RFPs", insights.Summary)

	_, err = client.Insights(ctx, "pricing", nil)
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, http.StatusUnprocessableEntity, failure.Status)

	_, err = client.GetRFP(ctx, "missing")
	require.ErrorAs(t, err, &failure)
	require.Equal(t, http.StatusNotFound, failure.Status)

	require.Equal(t, 1, calls["POST /api/technical-matching/RFP-1"])
}
