package api

import (
	"bytes"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEMsgpack selects msgpack request and response bodies.
const MIMEMsgpack = "application/msgpack"

// bindBody decodes the request body as msgpack or JSON depending on the
// Content-Type. Msgpack uses the JSON field names and decodes numbers as
// int64, uint64 or float64, like a JSON body would.
func bindBody(c *gin.Context, v interface{}) error {
	if c.ContentType() != MIMEMsgpack {
		return c.ShouldBindJSON(v)
	}
	dec := msgpack.NewDecoder(c.Request.Body)
	dec.SetCustomStructTag("json")
	dec.UseLooseInterfaceDecoding(true)
	return dec.Decode(v)
}

// respond writes obj as msgpack when the client accepts it, JSON otherwise.
func respond(c *gin.Context, status int, obj interface{}) {
	if !strings.Contains(c.GetHeader("Accept"), MIMEMsgpack) {
		c.JSON(status, obj)
		return
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(obj); err != nil {
		c.JSON(500, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.Data(status, MIMEMsgpack, buf.Bytes())
}
