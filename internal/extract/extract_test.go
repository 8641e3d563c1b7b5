package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DevSymphony/sysop/pkg/schema"
)

func intent(params ...schema.Param) *schema.IntentDefinition {
	return &schema.IntentDefinition{ID: "test.intent", Params: params}
}

func param(name string, kind schema.ParamKind) schema.Param {
	return schema.Param{Name: name, ParameterSpec: schema.ParameterSpec{Kind: kind}}
}

func TestExtract_Consuming(t *testing.T) {
	def := intent(param("host", schema.KindHostnameOrIP), param("port", schema.KindPort))

	got := Extract("ping 10.0.0.1 to port 10.0.0.1", def)

	assert.Equal(t, "10.0.0.1", got["host"])
	// the second address is still in the text, so the port pattern sees it;
	// the first one is gone
	assert.Equal(t, "10", got["port"])
}

func TestExtract_SameKindTwice(t *testing.T) {
	def := intent(param("network", schema.KindIPOrMask), param("gateway", schema.KindIP))

	got := Extract("add route 10.0.0.0/8 via 192.168.1.1", def)
	assert.Equal(t, map[string]string{"network": "10.0.0.0/8", "gateway": "192.168.1.1"}, got)
}

func TestExtract_DeclarationOrderDecides(t *testing.T) {
	text := "check 10.0.0.1 port 443"

	hostFirst := Extract(text, intent(param("host", schema.KindHostnameOrIP), param("port", schema.KindPort)))
	assert.Equal(t, "10.0.0.1", hostFirst["host"])
	assert.Equal(t, "443", hostFirst["port"])

	portFirst := Extract(text, intent(param("port", schema.KindPort), param("host", schema.KindHostnameOrIP)))
	assert.Equal(t, "10", portFirst["port"])
	_, ok := portFirst["host"]
	assert.False(t, ok)
}

func TestExtract_MissingIsAbsent(t *testing.T) {
	got := Extract("ping please", intent(param("host", schema.KindHostnameOrIP), param("count", schema.KindNumber)))
	assert.Empty(t, got)

	assert.Empty(t, Extract("anything", nil))
}

func TestExtract_Kinds(t *testing.T) {
	tests := []struct {
		name string
		kind schema.ParamKind
		text string
		want string
	}{
		{"ip", schema.KindIP, "ping 192.168.0.1 now", "192.168.0.1"},
		{"ip or mask cidr", schema.KindIPOrMask, "route 10.1.0.0/16", "10.1.0.0/16"},
		{"ip or mask bare mask", schema.KindIPOrMask, "netmask /24", "/24"},
		{"hostname", schema.KindHostname, "trace example.com quickly", "example.com"},
		{"hostname uppercase", schema.KindHostname, "trace WWW.Example.ORG", "WWW.Example.ORG"},
		{"hostname or ip host", schema.KindHostnameOrIP, "пингани ya.ru", "ya.ru"},
		{"port", schema.KindPort, "open port 8080", "8080"},
		{"pid", schema.KindPIDOrName, "1234", "1234"},
		{"process name", schema.KindPIDOrName, "nginx", "nginx"},
		{"username", schema.KindUsername, "delete user alice", "alice"},
		{"username uppercase keyword", schema.KindUsername, "delete USER bob", "bob"},
		{"username russian", schema.KindUsername, "удали пользователя ivan", "ivan"},
		{"username russian nominative", schema.KindUsername, "пользователь petr.k", "petr.k"},
		{"posix path", schema.KindFilepath, "show file /etc/hosts please", "/etc/hosts"},
		{"windows path", schema.KindFilepath, `type C:\Windows\System32\drivers\etc\hosts`, `C:\Windows\System32\drivers\etc\hosts`},
		{"password colon", schema.KindPassword, "password: s3cret", "s3cret"},
		{"password equals quoted", schema.KindPassword, `PASSWORD="hunter2"`, "hunter2"},
		{"password russian", schema.KindPassword, "пароль qwerty", "qwerty"},
		{"number", schema.KindNumber, "show 50 lines", "50"},
		{"quoted single", schema.KindQuotedString, "install 'htop'", "htop"},
		{"quoted double", schema.KindQuotedString, `start service "nginx web"`, "nginx web"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text, intent(param("v", tt.kind)))
			assert.Equal(t, tt.want, got["v"])
		})
	}
}

func TestExtract_NoMatch(t *testing.T) {
	tests := []struct {
		kind schema.ParamKind
		text string
	}{
		{schema.KindIP, "ping localhost"},
		{schema.KindHostname, "ping 8.8.8.8"},
		{schema.KindUsername, "list users"},
		{schema.KindQuotedString, "no quotes here"},
		{schema.KindPassword, "change it"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			_, ok := Extract(tt.text, intent(param("v", tt.kind)))["v"]
			assert.False(t, ok)
		})
	}
}

func firewallState() schema.Param {
	return schema.Param{Name: "state", ParameterSpec: schema.ParameterSpec{
		Kind:    schema.KindChoice,
		Choices: []string{"on", "off"},
		Synonyms: map[string][]string{
			"on":  {"enable", "включи", "включить"},
			"off": {"disable", "выключи", "выключить"},
		},
	}}
}

func TestExtract_Choice(t *testing.T) {
	def := intent(firewallState())

	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"turn firewall on", "on", true},
		{"Turn firewall OFF now", "off", true},
		{"включи фаервол", "on", true},
		{"Выключить фаервол", "off", true},
		{"please enable the firewall", "on", true},
		{"firewall online status", "", false},
		{"фаервол", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Extract(tt.text, def)["state"]
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindChoice(t *testing.T) {
	v, ok := FindChoice("выключи фаервол", firewallState().ParameterSpec)
	assert.True(t, ok)
	assert.Equal(t, "off", v)

	_, ok = FindChoice("on", schema.ParameterSpec{Kind: schema.KindNumber})
	assert.False(t, ok)
}
