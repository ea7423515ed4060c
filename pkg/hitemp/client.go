package hitemp

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nergy-se/hitemp/pkg/api/v1/device"
	"github.com/sirupsen/logrus"
)

const (
	apiLogin      = "/app/user/login"
	apiDeviceList = "/app/device/getMyAppectDeviceShareDataList"
	apiGetData    = "/app/device/getDataByCode"
	apiControl    = "/app/device/control"

	productID = "1245226668902080512"
	success   = "Success"
)

type response struct {
	ErrorMsg     string          `json:"error_msg"`
	ObjectResult json.RawMessage `json:"objectResult"`
}

type loginResult struct {
	Token   string `json:"x-token"`
	UserID  string `json:"userId"`
	UserID2 string `json:"user_id"`
}

type paramResult struct {
	Code       string      `json:"code"`
	Value      interface{} `json:"value"`
	RangeStart interface{} `json:"rangeStart"`
	RangeEnd   interface{} `json:"rangeEnd"`
}

type Client struct {
	server     string
	username   string
	password   string
	httpClient *http.Client

	token  string
	userID string
	mutex  sync.Mutex
}

func New(server, username, password string, insecureTLS bool) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 cloud uses a self signed cert
	}
	return &Client{
		server:   strings.TrimSuffix(server, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout:   time.Second * 30,
			Transport: transport,
		},
	}
}

// Token returns the current session token, empty if not logged in.
func (c *Client) Token() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.token
}

func (c *Client) Login(ctx context.Context) (string, error) {
	sum := md5.Sum([]byte(c.password))
	body := map[string]string{
		"userName": c.username,
		"password": hex.EncodeToString(sum[:]),
	}

	resp := &response{}
	err := c.post(ctx, apiLogin, "", body, resp)
	if err != nil {
		return "", err
	}
	if resp.ErrorMsg != success {
		return "", fmt.Errorf("%w: login failed: %s", ErrAuth, errorMsg(resp))
	}

	result := &loginResult{}
	if err := json.Unmarshal(resp.ObjectResult, result); err != nil {
		return "", fmt.Errorf("%w: error decoding login result: %s", ErrConnectivity, err)
	}
	if result.Token == "" {
		return "", fmt.Errorf("%w: no token in response", ErrAuth)
	}
	userID := result.UserID
	if userID == "" {
		userID = result.UserID2
	}

	c.mutex.Lock()
	c.token = result.Token
	c.userID = userID
	c.mutex.Unlock()
	logrus.WithFields(logrus.Fields{"userId": userID}).Debug("hitemp: login successful")
	return result.Token, nil
}

func (c *Client) ListDevices(ctx context.Context) ([]device.Device, error) {
	token, userID, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"productIds": []string{productID},
		"toUser":     userID,
		"pageIndex":  1,
		"pageSize":   999,
	}
	resp := &response{}
	err = c.post(ctx, apiDeviceList, token, body, resp)
	if err != nil {
		return nil, err
	}
	if err := c.checkResponse(apiDeviceList, resp); err != nil {
		return nil, err
	}

	var devices []device.Device
	if len(resp.ObjectResult) > 0 && string(resp.ObjectResult) != "null" {
		if err := json.Unmarshal(resp.ObjectResult, &devices); err != nil {
			return nil, fmt.Errorf("%w: error decoding device list: %s", ErrConnectivity, err)
		}
	}
	logrus.Debugf("hitemp: found %d devices", len(devices))
	return devices, nil
}

// ReadParams reads the given codes in one request. Codes missing in the response are absent in the result.
func (c *Client) ReadParams(ctx context.Context, deviceCode string, codes []string) (map[string]device.Register, error) {
	token, _, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"deviceCode":    deviceCode,
		"protocalCodes": codes, // sic
	}
	resp := &response{}
	err = c.post(ctx, apiGetData, token, body, resp)
	if err != nil {
		return nil, err
	}
	if err := c.checkResponse(apiGetData, resp); err != nil {
		return nil, err
	}

	var items []paramResult
	if len(resp.ObjectResult) > 0 && string(resp.ObjectResult) != "null" {
		if err := json.Unmarshal(resp.ObjectResult, &items); err != nil {
			return nil, fmt.Errorf("%w: error decoding params: %s", ErrConnectivity, err)
		}
	}

	params := make(map[string]device.Register, len(items))
	for _, item := range items {
		if item.Code == "" {
			continue
		}
		params[item.Code] = device.Register{
			Value:      item.Value,
			RangeStart: item.RangeStart,
			RangeEnd:   item.RangeEnd,
		}
	}
	return params, nil
}

// WriteParam writes a single parameter. A rejected write that is not an auth failure returns false without error.
func (c *Client) WriteParam(ctx context.Context, deviceCode, code string, value interface{}) (bool, error) {
	token, _, err := c.session(ctx)
	if err != nil {
		return false, err
	}

	body := map[string]interface{}{
		"param": []map[string]interface{}{
			{
				"deviceCode":   deviceCode,
				"protocolCode": code,
				"value":        coerce(value),
			},
		},
	}
	resp := &response{}
	err = c.post(ctx, apiControl, token, body, resp)
	if err != nil {
		return false, err
	}
	err = c.checkResponse(apiControl, resp)
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		logrus.WithFields(logrus.Fields{"device": deviceCode, "code": code}).Errorf("hitemp: write param failed: %s", apiErr.msg)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	logrus.WithFields(logrus.Fields{"device": deviceCode, "code": code, "value": value}).Debug("hitemp: write param successful")
	return true, nil
}

func (c *Client) session(ctx context.Context) (string, string, error) {
	c.mutex.Lock()
	token, userID := c.token, c.userID
	c.mutex.Unlock()
	if token != "" {
		return token, userID, nil
	}

	token, err := c.Login(ctx)
	if err != nil {
		return "", "", err
	}
	c.mutex.Lock()
	userID = c.userID
	c.mutex.Unlock()
	return token, userID, nil
}

func (c *Client) checkResponse(path string, resp *response) error {
	if resp.ErrorMsg == success {
		return nil
	}
	msg := errorMsg(resp)
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "token") || strings.Contains(lower, "auth") {
		c.mutex.Lock()
		c.token = ""
		c.mutex.Unlock()
		return fmt.Errorf("%w: %s", ErrAuth, msg)
	}
	return &apiError{path: path, msg: msg}
}

func (c *Client) post(ctx context.Context, path, token string, body interface{}, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error encoding request to %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("error creating request to %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if token != "" {
		req.Header.Set("x-token", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s returned StatusCode: %d", ErrConnectivity, path, resp.StatusCode)
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("%w: error decoding response from %s (StatusCode: %d): %s", ErrConnectivity, path, resp.StatusCode, err)
	}
	return nil
}

func errorMsg(resp *response) string {
	if resp.ErrorMsg == "" {
		return "Unknown error"
	}
	return resp.ErrorMsg
}

// coerce turns numeric strings into numbers since the device rejects quoted numbers.
func coerce(value interface{}) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return s
}
