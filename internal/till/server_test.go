package till

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/pos-terminal/internal/barcode"
)

var _ = Describe("Server", func() {
	var (
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		for _, method := range []string{"GET", "POST", "PUT", "DELETE"} {
			ghttpServer.RouteToHandler(method, regexp.MustCompile(`.*`), server.ServeHTTP)
		}
	}

	do := func(method, path string, body any) *http.Response {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(data)
		}
		req, err := http.NewRequest(method, ghttpServer.URL()+path, reader)
		Expect(err).NotTo(HaveOccurred())
		if auth.Username != "" {
			req.SetBasicAuth(auth.Username, auth.Password)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, v any) {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, v)).To(Succeed())
	}

	BeforeEach(func() {
		service = NewServiceWithDeps(newMockCatalog(), barcode.Decoder{}, testLanguages(), "en_US", &sequenceIDGenerator{}, &mockTimeSource{now: scanTime})
		auth = BasicAuth{}
	})

	JustBeforeEach(func() {
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
			ghttpServer = nil
		}
	})

	Describe("handleIndex", func() {
		It("should return HTML containing POS Terminal", func() {
			resp := do("GET", "/", nil)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("POS Terminal"))
		})

		When("request method is not GET", func() {
			It("should return status Method Not Allowed", func() {
				resp := do("POST", "/", nil)
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
			})
		})
	})

	Describe("handleScan", func() {
		When("the barcode is valid", func() {
			It("should return status Created with the line", func() {
				resp := do("POST", "/api/scan", map[string]string{"barcode": weightPriceCode})
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				var line Line
				decode(resp, &line)
				Expect(line.Name).To(Equal("Apple"))
				Expect(line.SubtotalCents).To(Equal(int64(599)))
			})

			It("should add the line to the order", func() {
				do("POST", "/api/scan", map[string]string{"barcode": weightPriceCode}).Body.Close()
				Expect(service.Order().Lines).To(HaveLen(1))
			})
		})

		When("the product is expired", func() {
			BeforeEach(func() {
				service = NewServiceWithDeps(newMockCatalog(), barcode.Decoder{}, testLanguages(), "en_US", &sequenceIDGenerator{}, &mockTimeSource{now: scanTime.Add(time.Hour)})
			})

			It("should return Unprocessable Entity with the error code", func() {
				resp := do("POST", "/api/scan", map[string]string{"barcode": freshCode})
				Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
				var body errorResponse
				decode(resp, &body)
				Expect(body.Code).To(Equal(2))
				Expect(body.Key).To(Equal("expired_product"))
				Expect(body.Error).To(Equal("Product expired"))
			})
		})

		When("the barcode is empty", func() {
			It("should return error code 1", func() {
				resp := do("POST", "/api/scan", map[string]string{"barcode": ""})
				Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
				var body errorResponse
				decode(resp, &body)
				Expect(body.Code).To(Equal(1))
			})
		})

		When("the product is unknown", func() {
			It("should return Not Found", func() {
				resp := do("POST", "/api/scan", map[string]string{"barcode": "999"})
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				var body errorResponse
				decode(resp, &body)
				Expect(body.Error).To(Equal("Product not found (999)"))
			})
		})

		When("the body is not JSON", func() {
			It("should return Bad Request", func() {
				req, err := http.NewRequest("POST", ghttpServer.URL()+"/api/scan", strings.NewReader("nope"))
				Expect(err).NotTo(HaveOccurred())
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleGetOrder", func() {
		BeforeEach(func() {
			_, err := service.Scan(weightPriceCode)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the order with a formatted total", func() {
			resp := do("GET", "/api/order", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
			var body orderResponse
			decode(resp, &body)
			Expect(body.Lines).To(HaveLen(1))
			Expect(body.TotalCents).To(Equal(int64(599)))
			Expect(body.Total).To(Equal("$5.99"))
		})
	})

	Describe("handleCancelOrder", func() {
		It("should clear the order", func() {
			_, err := service.Scan(weightPriceCode)
			Expect(err).NotTo(HaveOccurred())
			resp := do("DELETE", "/api/order", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(service.Order().Lines).To(BeEmpty())
		})
	})

	Describe("handleCheckout", func() {
		When("the order has lines", func() {
			BeforeEach(func() {
				_, err := service.Scan(weightPriceCode)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the sale", func() {
				resp := do("POST", "/api/checkout", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				var sale Sale
				decode(resp, &sale)
				Expect(sale.TotalCents).To(Equal(int64(599)))
				Expect(service.Order().Lines).To(BeEmpty())
			})
		})

		When("the order is empty", func() {
			It("should return Bad Request", func() {
				resp := do("POST", "/api/checkout", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				var body errorResponse
				decode(resp, &body)
				Expect(body.Error).To(Equal("The order is empty"))
			})
		})
	})

	Describe("handleGetProduct", func() {
		It("should return the product", func() {
			resp := do("GET", "/api/products/1001", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var product map[string]any
			decode(resp, &product)
			Expect(product["name"]).To(Equal("Apple"))
		})

		It("should return Not Found for an unknown PLU", func() {
			resp := do("GET", "/api/products/42", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("should return Bad Request for a non-numeric PLU", func() {
			resp := do("GET", "/api/products/abc", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("languages", func() {
		It("should list the languages", func() {
			resp := do("GET", "/api/languages", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var languages []Language
			decode(resp, &languages)
			Expect(languages).To(ConsistOf(
				Language{Locale: "en_US", Name: "English", Active: true},
				Language{Locale: "zh_CN", Name: "中文", Active: false},
			))
		})

		It("should switch the language", func() {
			resp := do("PUT", "/api/language", map[string]string{"name": "中文"})
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(service.Locale()).To(Equal("zh_CN"))

			resp = do("GET", "/api/texts", nil)
			var texts map[string]string
			decode(resp, &texts)
			Expect(texts["pay"]).To(Equal("支付"))
		})

		It("should reject an unknown language", func() {
			resp := do("PUT", "/api/language", map[string]string{"name": "Klingon"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			var body errorResponse
			decode(resp, &body)
			Expect(body.Error).To(Equal("Unknown language: Klingon"))
			Expect(body.Key).To(Equal("unknown_language"))
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "cashier", Password: "secret"}
		})

		It("should accept valid credentials", func() {
			resp := do("GET", "/api/order", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("should reject missing credentials", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/order")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("POS Terminal"))
		})

		It("should reject wrong credentials", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/order", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("cashier:wrong")))
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("should reject a password that only shares a prefix", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/order", nil)
			Expect(err).NotTo(HaveOccurred())
			req.SetBasicAuth("cashier", "secret-and-more")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("should reject a malformed authorization header", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/order", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Basic not-base64!")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})
	})
})
