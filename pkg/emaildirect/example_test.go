package emaildirect_test

import (
	"context"
	"fmt"

	"github.com/jarcoal/httpmock"

	"github.com/criticaltool/emaildirect-go-client/pkg/client"
	"github.com/criticaltool/emaildirect-go-client/pkg/emaildirect"
)

func ExampleAPI_AddCustomColumn() {
	c, transport := client.NewMockedClient()
	transport.RegisterResponder("POST", "https://rest.emaildirect.com/v1/Database", httpmock.NewStringResponder(201, `{"ColumnName":"Age","ColumnType":"int"}`))

	cfg, err := emaildirect.NewConfig(emaildirect.WithAPIKey("my-api-key"))
	if err != nil {
		panic(err)
	}

	api := emaildirect.New(cfg, emaildirect.WithClient(&c))
	result, err := api.AddCustomColumn(context.Background(), "Age", "int", 0)
	if err != nil {
		panic(err)
	}

	fmt.Println(api.LastMetadata().StatusCode)
	fmt.Println(result.Data.(map[string]any)["ColumnName"])
	// Output:
	// 201
	// Age
}

func ExampleEncodePayload() {
	out, err := emaildirect.EncodePayload(emaildirect.FormatXML, emaildirect.ColumnAdd{ColumnName: "Age", ColumnType: "int"})
	if err != nil {
		panic(err)
	}
	fmt.Println(out)
	// Output:
	// <?xml version="1.0" encoding="UTF-8"?>
	// <DatabaseColumnAdd><ColumnName>Age</ColumnName><ColumnType>int</ColumnType><ColumnSize>0</ColumnSize></DatabaseColumnAdd>
}
