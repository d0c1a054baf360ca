package store

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/scorepad/model"
)

// Dynamo keeps scores in a DynamoDB table keyed by PK.
type Dynamo struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

func NewDynamo(endpoint, region, table string) (*Dynamo, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String(region),
		Endpoint: aws.String(endpoint),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create a new DynamoDB session: %w", err)
	}
	return NewDynamoWithClient(dynamodb.New(sess), table), nil
}

func NewDynamoWithClient(client dynamodbiface.DynamoDBAPI, table string) *Dynamo {
	return &Dynamo{client: client, table: table}
}

func (d *Dynamo) Save(key string, data model.ScoreData) error {
	b, err := Marshal(data)
	if err != nil {
		return err
	}
	_, err = d.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item: map[string]*dynamodb.AttributeValue{
			"PK":      {S: aws.String(key)},
			"Score":   {S: aws.String(string(b))},
			"SavedAt": {N: aws.String(strconv.FormatInt(data.SavedAt, 10))},
		},
	})
	if err != nil {
		return fmt.Errorf("error from DynamoDB: %w", err)
	}
	return nil
}

func (d *Dynamo) Load(key string) (model.ScoreData, error) {
	res, err := d.client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(key)},
		},
	})
	if err != nil {
		return model.ScoreData{}, fmt.Errorf("error from DynamoDB: %w", err)
	}
	if res.Item == nil || res.Item["Score"] == nil || res.Item["Score"].S == nil {
		return model.ScoreData{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return Unmarshal([]byte(*res.Item["Score"].S))
}
