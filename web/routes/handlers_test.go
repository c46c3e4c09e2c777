package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dasdy/turismo/model"
	"github.com/dasdy/turismo/table"
	"github.com/dasdy/turismo/web/components"
	"github.com/dasdy/turismo/web/routes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestFor(session string, req *http.Request) *http.Request {
	return req.WithContext(routes.ContextWithSession(req.Context(), session))
}

func uploadRequest(t *testing.T, session string, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer

	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "turismo.csv")
	require.NoError(t, err)

	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return requestFor(session, req)
}

func preferencesRequest(session string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/preferences", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return requestFor(session, req)
}

func TestBuildPageRenderContext(t *testing.T) {
	handler, _ := setupHandler(t)
	tbl := sampleTable(t)

	t.Run("no table gives the upload page", func(t *testing.T) {
		rc := handler.BuildPageRenderContext(nil, model.DefaultPreferences())

		assert.Equal(t, components.PageTypeUpload, rc.Page)
		assert.Nil(t, rc.Filtered)
		assert.Empty(t, rc.Charts)
	})

	t.Run("dashboard", func(t *testing.T) {
		prefs := model.Preferences{City: ptr("Salvador"), Year: ptr("2020"), ShowData: true}
		rc := handler.BuildPageRenderContext(tbl, prefs)

		assert.Equal(t, components.PageTypeDashboard, rc.Page)
		assert.Equal(t, []string{"Rio", "Salvador", "Manaus"}, rc.Cities)
		assert.Equal(t, []string{"2019", "2020", "2021"}, rc.Years)
		assert.True(t, rc.ShowData)
		require.NotNil(t, rc.Filtered)
		assert.Equal(t, model.FilteredRow{City: "Salvador", Year: "2020", Value: model.Number(2)}, *rc.Filtered)
		assert.Equal(t, 3, rc.Summary.Records)

		require.Len(t, rc.Charts, len(model.ChartKinds))

		for i, kind := range model.ChartKinds {
			assert.Equal(t, kind, rc.Charts[i].Kind)
			assert.Equal(t, "/charts/"+string(kind), rc.Charts[i].URL)
		}
	})

	t.Run("only the histogram carries a legend", func(t *testing.T) {
		rc := handler.BuildPageRenderContext(tbl, model.DefaultPreferences())

		for _, item := range rc.Charts {
			if item.Kind == model.ChartHistogram {
				require.Len(t, item.Legend, 2)
				assert.Equal(t, "Rio", item.Legend[0].Label)
				assert.NotEmpty(t, item.Legend[0].Color)
			} else {
				assert.Empty(t, item.Legend, item.Kind)
			}
		}
	})
}

func TestIndexHandle(t *testing.T) {
	t.Run("upload page without a dataset", func(t *testing.T) {
		handler, _ := setupHandler(t)
		recorder := httptest.NewRecorder()

		handler.IndexHandle(recorder, requestFor("fresh", httptest.NewRequest(http.MethodGet, "/", nil)))

		assert.Equal(t, http.StatusOK, recorder.Code)
		body := recorder.Body.String()
		assert.Contains(t, body, `action="/upload"`)
		assert.NotContains(t, body, `action="/preferences"`)
	})

	t.Run("dashboard stores resolved selection", func(t *testing.T) {
		handler, storage := setupHandler(t)
		recorder := httptest.NewRecorder()

		handler.IndexHandle(recorder, requestFor("s1", httptest.NewRequest(http.MethodGet, "/", nil)))

		assert.Equal(t, http.StatusOK, recorder.Code)
		body := recorder.Body.String()
		assert.Contains(t, body, `value="Rio" onchange="this.form.submit()" checked`)
		assert.Contains(t, body, `<option value="2019" selected>`)
		assert.Contains(t, body, "Total de registros: 3")
		assert.Contains(t, body, "5.641667")
		assert.NotContains(t, body, "Dados filtrados")

		prefs := storage.Prefs["s1"]
		require.NotNil(t, prefs.City)
		require.NotNil(t, prefs.Year)
		assert.Equal(t, "Rio", *prefs.City)
		assert.Equal(t, "2019", *prefs.Year)
	})

	t.Run("show data reveals the filtered row", func(t *testing.T) {
		handler, storage := setupHandler(t)
		storage.Prefs["s1"] = model.Preferences{
			City: ptr("Rio"), Year: ptr("2020"), ShowData: true,
			FontColor: model.DefaultFontColor, PanelColor: model.DefaultPanelColor,
		}
		recorder := httptest.NewRecorder()

		handler.IndexHandle(recorder, requestFor("s1", httptest.NewRequest(http.MethodGet, "/", nil)))

		body := recorder.Body.String()
		assert.Contains(t, body, "Dados filtrados")
		assert.Contains(t, body, "<td>Rio</td><td>2020</td><td>&lt;NA&gt;</td>")
		assert.Zero(t, storage.SetCalls)
	})

	t.Run("reveal delay gives up with the request", func(t *testing.T) {
		handler, storage := setupHandler(t)
		handler.RevealDelay = time.Hour
		storage.Prefs["s1"] = model.Preferences{City: ptr("Rio"), Year: ptr("2019"), ShowData: true}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req := requestFor("s1", httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
		recorder := httptest.NewRecorder()

		handler.IndexHandle(recorder, req)

		assert.Empty(t, recorder.Body.String())
	})
}

func TestUploadHandle(t *testing.T) {
	t.Run("attaches the dataset and redirects", func(t *testing.T) {
		handler, storage := setupHandler(t)
		recorder := httptest.NewRecorder()

		handler.UploadHandle(recorder, uploadRequest(t, "s2", "Cidades,2019,2020\nRio,\"10,5\",-\n"))

		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		assert.Equal(t, "/", recorder.Header().Get("Location"))

		key := storage.Datasets["s2"]
		require.NotEmpty(t, key)

		tbl, ok := handler.Tables.Get(key)
		require.True(t, ok)
		assert.Equal(t, []string{"2019", "2020"}, tbl.Columns)
	})

	t.Run("same content is parsed once", func(t *testing.T) {
		handler, storage := setupHandler(t)

		handler.UploadHandle(httptest.NewRecorder(), uploadRequest(t, "s2", sampleCSV))

		assert.Equal(t, storage.Datasets["s1"], storage.Datasets["s2"])
		assert.Equal(t, 1, handler.Tables.Len())
	})

	t.Run("re-upload replaces the dataset", func(t *testing.T) {
		handler, storage := setupHandler(t)
		before := storage.Datasets["s1"]

		handler.UploadHandle(httptest.NewRecorder(), uploadRequest(t, "s1", "Cidades,2022\nRecife,\"1,5\"\n"))

		assert.NotEqual(t, before, storage.Datasets["s1"])
		assert.Equal(t, table.Key([]byte("Cidades,2022\nRecife,\"1,5\"\n")), storage.Datasets["s1"])
	})

	t.Run("malformed file", func(t *testing.T) {
		handler, storage := setupHandler(t)
		recorder := httptest.NewRecorder()

		handler.UploadHandle(recorder, uploadRequest(t, "s2", "Cidades,2019\nRio,1,2\n"))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Empty(t, storage.Datasets["s2"])
	})

	t.Run("header only file is accepted", func(t *testing.T) {
		handler, storage := setupHandler(t)
		recorder := httptest.NewRecorder()

		handler.UploadHandle(recorder, uploadRequest(t, "s2", "Cidades,2019,2020\n"))
		assert.Equal(t, http.StatusSeeOther, recorder.Code)

		recorder = httptest.NewRecorder()
		handler.IndexHandle(recorder, requestFor("s2", httptest.NewRequest(http.MethodGet, "/", nil)))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Total de registros: 0")
		assert.NotEmpty(t, storage.Datasets["s2"])
	})

	t.Run("missing file field", func(t *testing.T) {
		handler, _ := setupHandler(t)
		recorder := httptest.NewRecorder()

		handler.UploadHandle(recorder, preferencesRequest("s2", url.Values{"city": {"Rio"}}))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestPreferencesHandle(t *testing.T) {
	tests := []struct {
		name  string
		form  url.Values
		check func(t *testing.T, prefs model.Preferences)
	}{
		{
			name: "city and year",
			form: url.Values{"city": {"Manaus"}, "year": {"2021"}},
			check: func(t *testing.T, prefs model.Preferences) {
				t.Helper()
				require.NotNil(t, prefs.City)
				assert.Equal(t, "Manaus", *prefs.City)
				assert.Equal(t, "2021", *prefs.Year)
			},
		},
		{
			name: "checkbox after its hidden companion",
			form: url.Values{"show_data": {"off", "on"}},
			check: func(t *testing.T, prefs model.Preferences) {
				t.Helper()
				assert.True(t, prefs.ShowData)
			},
		},
		{
			name: "unchecked checkbox",
			form: url.Values{"show_data": {"off"}},
			check: func(t *testing.T, prefs model.Preferences) {
				t.Helper()
				assert.False(t, prefs.ShowData)
			},
		},
		{
			name: "colors",
			form: url.Values{"font_color": {"#000000"}, "panel_color": {"#FFFFFF"}},
			check: func(t *testing.T, prefs model.Preferences) {
				t.Helper()
				assert.Equal(t, "#000000", prefs.FontColor)
				assert.Equal(t, "#FFFFFF", prefs.PanelColor)
			},
		},
		{
			name: "unrelated fields are ignored",
			form: url.Values{"theme": {"dark"}},
			check: func(t *testing.T, prefs model.Preferences) {
				t.Helper()
				assert.Equal(t, model.DefaultPreferences(), prefs)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, storage := setupHandler(t)
			recorder := httptest.NewRecorder()

			handler.PreferencesHandle(recorder, preferencesRequest("s1", tt.form))

			assert.Equal(t, http.StatusSeeOther, recorder.Code)
			tt.check(t, storage.Prefs["s1"])
		})
	}
}

func TestExportHandle(t *testing.T) {
	t.Run("filtered row as csv", func(t *testing.T) {
		handler, storage := setupHandler(t)
		storage.Prefs["s1"] = model.Preferences{City: ptr("Salvador"), Year: ptr("2019")}
		recorder := httptest.NewRecorder()

		handler.ExportHandle(recorder, requestFor("s1", httptest.NewRequest(http.MethodGet, "/export.csv", nil)))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "text/csv", recorder.Header().Get("Content-Type"))
		assert.Contains(t, recorder.Header().Get("Content-Disposition"), "dados_filtrados.csv")
		assert.Equal(t, "Cidade,Ano,%\nSalvador,2019,3.1\n", recorder.Body.String())
	})

	t.Run("missing value exports empty", func(t *testing.T) {
		handler, storage := setupHandler(t)
		storage.Prefs["s1"] = model.Preferences{City: ptr("Rio"), Year: ptr("2020")}
		recorder := httptest.NewRecorder()

		handler.ExportHandle(recorder, requestFor("s1", httptest.NewRequest(http.MethodGet, "/export.csv", nil)))

		assert.Equal(t, "Cidade,Ano,%\nRio,2020,\n", recorder.Body.String())
	})

	t.Run("no dataset", func(t *testing.T) {
		handler, _ := setupHandler(t)
		recorder := httptest.NewRecorder()

		handler.ExportHandle(recorder, requestFor("fresh", httptest.NewRequest(http.MethodGet, "/export.csv", nil)))

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})
}

func TestChartHandle(t *testing.T) {
	serve := func(t *testing.T, handler *routes.ServerHandler, session, target string) *httptest.ResponseRecorder {
		t.Helper()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /charts/{kind}", handler.ChartHandle)

		recorder := httptest.NewRecorder()
		mux.ServeHTTP(recorder, requestFor(session, httptest.NewRequest(http.MethodGet, target, nil)))

		return recorder
	}

	t.Run("every kind renders as svg", func(t *testing.T) {
		handler, _ := setupHandler(t)

		for _, kind := range model.ChartKinds {
			recorder := serve(t, handler, "s1", "/charts/"+string(kind))

			assert.Equal(t, http.StatusOK, recorder.Code, kind)
			assert.Equal(t, "image/svg+xml", recorder.Header().Get("Content-Type"))
			assert.Equal(t, "no-store", recorder.Header().Get("Cache-Control"))
			assert.Contains(t, recorder.Body.String(), "<svg", kind)
		}
	})

	t.Run("png", func(t *testing.T) {
		handler, _ := setupHandler(t)
		recorder := serve(t, handler, "s1", "/charts/bar?format=png")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "image/png", recorder.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(recorder.Body.Bytes(), []byte("\x89PNG")))
	})

	t.Run("json follows the selection and theme", func(t *testing.T) {
		handler, storage := setupHandler(t)
		storage.Prefs["s1"] = model.Preferences{City: ptr("Salvador"), FontColor: "#000000", PanelColor: "#FFFFFF"}

		recorder := serve(t, handler, "s1", "/charts/pie?format=json")
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

		var fig model.Figure
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &fig))

		assert.Equal(t, model.ChartPie, fig.Kind)
		assert.Equal(t, "Distribuição dos valores para Salvador", fig.Title)
		assert.Len(t, fig.Slices, 3)
		assert.Equal(t, model.Theme{FontColor: "#000000", PanelColor: "#FFFFFF"}, fig.Theme)
	})

	t.Run("unknown kind", func(t *testing.T) {
		handler, _ := setupHandler(t)

		assert.Equal(t, http.StatusNotFound, serve(t, handler, "s1", "/charts/radar").Code)
	})

	t.Run("unknown format", func(t *testing.T) {
		handler, _ := setupHandler(t)

		assert.Equal(t, http.StatusBadRequest, serve(t, handler, "s1", "/charts/bar?format=gif").Code)
	})

	t.Run("no dataset", func(t *testing.T) {
		handler, _ := setupHandler(t)

		assert.Equal(t, http.StatusConflict, serve(t, handler, "fresh", "/charts/bar").Code)
	})
}
