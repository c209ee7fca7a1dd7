package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

const leadDescribe = `{
  "name": "Lead",
  "fields": [
    {"name": "Status", "label": "Lead Status", "type": "picklist"},
    {"name": "Company", "label": "Company", "type": "string"}
  ]
}`

const leadObjectMeta = `<?xml version="1.0" encoding="UTF-8"?>
<CustomObject xmlns="http://soap.sforce.com/2006/04/metadata">
    <label>Lead</label>
    <validationRules>
        <fullName>Require_Company</fullName>
        <active>true</active>
        <errorConditionFormula>ISBLANK(Company)</errorConditionFormula>
        <errorMessage>Company is required.</errorMessage>
    </validationRules>
    <validationRules>
        <fullName>Valid_Email</fullName>
        <errorConditionFormula>NOT(CONTAINS(Email, &quot;@&quot;))</errorConditionFormula>
    </validationRules>
</CustomObject>`

const recordFlowMeta = `<?xml version="1.0" encoding="UTF-8"?>
<Flow xmlns="http://soap.sforce.com/2006/04/metadata">
    <label>Assign Lead Owner</label>
    <trigger>
        <object>Lead</object>
        <type>RecordAfterSave</type>
    </trigger>
</Flow>`

const screenFlowMeta = `<?xml version="1.0" encoding="UTF-8"?>
<Flow xmlns="http://soap.sforce.com/2006/04/metadata">
    <label>Intake Screen</label>
    <processType>Flow</processType>
</Flow>`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func quietLogger() *logging.Logger { return logging.New("error") }

func TestCollect_AllSources(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "force-app", "main", "default")
	leadJSON := filepath.Join(root, "Lead.json")

	writeFile(t, leadJSON, leadDescribe)
	writeFile(t, filepath.Join(base, "objects", "Lead", "Lead.object-meta.xml"), leadObjectMeta)
	writeFile(t, filepath.Join(base, "objects", "Account", "fields", "Name.field-meta.xml"), "<CustomField/>")
	writeFile(t, filepath.Join(base, "flows", "Assign_Lead_Owner.flow-meta.xml"), recordFlowMeta)
	writeFile(t, filepath.Join(base, "flows", "Intake_Screen.flow-meta.xml"), screenFlowMeta)
	writeFile(t, filepath.Join(base, "flows", "README.md"), "notes")
	writeFile(t, filepath.Join(base, "triggers", "LeadTrigger.trigger-meta.xml"), "<ApexTrigger/>")
	writeFile(t, filepath.Join(base, "triggers", "LeadTrigger.trigger"), "trigger LeadTrigger on Lead (before insert) {}")

	chunks, err := Collect(Source{
		BasePath:    base,
		ObjectFiles: []string{leadJSON, filepath.Join(root, "Opportunity.json")},
	}, quietLogger())
	require.NoError(t, err)

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{
		"Lead-summary",
		"Lead-Status",
		"Lead-Company",
		"Lead-vr-Require_Company",
		"Lead-vr-Valid_Email",
		"flow-Assign_Lead_Owner",
		"trigger-LeadTrigger",
	}, ids)

	assert.Equal(t, "The Salesforce object 'Lead' has a total of 2 fields.", chunks[0].Text)
	assert.Equal(t, "In Salesforce, the object 'Lead' has a field with the API name 'Status'. Its label is 'Lead Status' and its data type is 'picklist'.", chunks[1].Text)
	assert.Equal(t, `On the 'Lead' object, there is a validation rule named 'Valid_Email' with the formula: NOT(CONTAINS(Email, "@"))`, chunks[4].Text)
	assert.Equal(t, "In Salesforce, there is a Flow named 'Assign_Lead_Owner' that is triggered to run on the 'Lead' object.", chunks[5].Text)
	assert.Equal(t, "In Salesforce, there is an Apex Trigger named 'LeadTrigger'.", chunks[6].Text)
}

func TestCollect_MissingEverythingIsEmpty(t *testing.T) {
	root := t.TempDir()

	chunks, err := Collect(Source{
		BasePath:    filepath.Join(root, "nope"),
		ObjectFiles: []string{filepath.Join(root, "Lead.json")},
	}, quietLogger())

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestCollect_MalformedDescribeFails(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Lead.json")
	writeFile(t, path, `{"name": "Lead", "fields": [`)

	_, err := Collect(Source{BasePath: root, ObjectFiles: []string{path}}, quietLogger())
	assert.ErrorContains(t, err, "Lead.json")
}

func TestCollect_MalformedObjectXMLFails(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "objects", "Lead", "Lead.object-meta.xml"), "<CustomObject><validationRules><fullName>x</fullName>")

	_, err := Collect(Source{BasePath: root}, quietLogger())
	assert.Error(t, err)
}

func TestReadFlowTriggerObject_NestedTrigger(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Nested.flow-meta.xml")
	writeFile(t, path, `<Flow><start><trigger><object> Opportunity </object></trigger></start></Flow>`)

	object, err := readFlowTriggerObject(path)
	require.NoError(t, err)
	assert.Equal(t, "Opportunity", object)
}

func TestReadFlowTriggerObject_SkipsTriggerWithoutObject(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Scheduled.flow-meta.xml")
	writeFile(t, path, `<Flow><trigger><schedule>daily</schedule></trigger><start><trigger><object>Lead</object></trigger></start></Flow>`)

	object, err := readFlowTriggerObject(path)
	require.NoError(t, err)
	assert.Equal(t, "Lead", object)
}

func TestReadFlowTriggerObject_NoObject(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Screen.flow-meta.xml")
	writeFile(t, path, `<Flow><trigger><schedule>daily</schedule></trigger></Flow>`)

	object, err := readFlowTriggerObject(path)
	require.NoError(t, err)
	assert.Empty(t, object)
}

func TestLoadObjectFile_SkipsUnnamedFields(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Opportunity.json")
	writeFile(t, path, `{"name":"Opportunity","fields":[{"name":"Amount","label":"Amount","type":"currency"},{"label":"orphan"}]}`)

	chunks, err := loadObjectFile(path)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "The Salesforce object 'Opportunity' has a total of 2 fields.", chunks[0].Text)
	assert.Equal(t, "Opportunity-Amount", chunks[1].ID)
}
